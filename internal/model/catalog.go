package model

// Scenario is a game offered by the venue.  A scenario owns one or more
// chapters that share the same physical room.
type Scenario struct {
	ID       string `json:"id"`       // scenarios.id
	Name     string `json:"name"`     // scenarios.name
	Category string `json:"category"` // scenarios.category
}

// Chapter is a session variant of a scenario with its own slot
// calendar.
type Chapter struct {
	ID         string `json:"id"`          // chapters.id
	ScenarioID string `json:"scenario_id"` // chapters.scenario_id
	Name       string `json:"name"`        // chapters.name
}
