package main

import (
	"fmt"
	"time"

	"github.com/iliyamo/escape-room-booking/internal/model"
	"github.com/iliyamo/escape-room-booking/internal/store"
)

// seedDemo fills an in-memory store with one scenario of two chapters
// sharing a room, hourly slots from 10:00 to 22:00 venue time for the
// next week, and one staff address.
func seedDemo(mem *store.Memory, loc *time.Location, now time.Time) {
	mem.AddScenario(model.Scenario{ID: "sc-1", Name: "The Lost Tomb", Category: "adventure"})
	mem.AddChapter(model.Chapter{ID: "ch-1", ScenarioID: "sc-1", Name: "Chapter I"})
	mem.AddChapter(model.Chapter{ID: "ch-2", ScenarioID: "sc-1", Name: "Chapter II"})
	mem.AddStaff("staff@example.com")

	today := now.In(loc)
	first := time.Date(today.Year(), today.Month(), today.Day(), 10, 0, 0, 0, loc)
	for d := 0; d < 7; d++ {
		day := first.AddDate(0, 0, d)
		for h := 0; h < 12; h++ {
			start := day.Add(time.Duration(h) * time.Hour)
			for _, ch := range []string{"ch-1", "ch-2"} {
				mem.AddTimeSlot(model.TimeSlot{
					ID:        fmt.Sprintf("%s-%s", ch, start.UTC().Format("20060102T1504")),
					ChapterID: ch,
					StartTime: start.UTC(),
					EndTime:   start.Add(time.Hour).UTC(),
				})
			}
		}
	}
}
