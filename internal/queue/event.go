// Package queue carries outbound reservation emails over RabbitMQ.  The
// request path only enqueues rendered messages; a consumer running next
// to the HTTP server delivers them.
package queue

// DefaultEmailQueue is the durable queue email jobs are published to.
const DefaultEmailQueue = "reservation.emails"

// EmailJob is one fully rendered message for one recipient.
type EmailJob struct {
	To            string `json:"to"`
	Subject       string `json:"subject"`
	HTML          string `json:"html"`
	Text          string `json:"text,omitempty"`
	ReservationID string `json:"reservation_id"`
	Kind          string `json:"kind"`
	EnqueuedAt    string `json:"enqueued_at"`
}
