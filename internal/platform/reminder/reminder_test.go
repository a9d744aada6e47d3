package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/events"
)

func TestJob_RunPublishesForTomorrow(t *testing.T) {
	var asked string
	src := SourceFunc(func(_ context.Context, date string) ([]Due, error) {
		asked = date
		return []Due{
			{AppointmentID: "a1", PatientID: "p1", Date: date, Time: "09:00"},
			{AppointmentID: "a2", PatientID: "p2", Date: date, Time: "10:30"},
		}, nil
	})
	rec := events.NewRecorder()

	j := NewJob(src, rec, zerolog.Nop())
	j.now = func() time.Time { return time.Date(2024, 12, 31, 7, 0, 0, 0, time.UTC) }

	n, err := j.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if asked != "2025-01-01" {
		t.Errorf("expected lookup for 2025-01-01, got %s", asked)
	}
	if n != 2 {
		t.Errorf("expected 2 reminders, got %d", n)
	}
	evts := rec.Events()
	if len(evts) != 2 || evts[0].Type != events.AppointmentReminder || evts[0].Key != "a1" {
		t.Fatalf("unexpected events: %+v", evts)
	}
	if evts[1].Data["time"] != "10:30" {
		t.Errorf("expected time 10:30, got %s", evts[1].Data["time"])
	}
}

func TestJob_RunSourceError(t *testing.T) {
	src := SourceFunc(func(context.Context, string) ([]Due, error) {
		return nil, errors.New("store down")
	})
	j := NewJob(src, events.NewRecorder(), zerolog.Nop())
	if _, err := j.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestJob_Schedule(t *testing.T) {
	j := NewJob(SourceFunc(func(context.Context, string) ([]Due, error) { return nil, nil }), events.NewRecorder(), zerolog.Nop())

	c, err := j.Schedule("0 7 * * *")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(c.Entries()) != 1 {
		t.Errorf("expected 1 cron entry, got %d", len(c.Entries()))
	}

	if _, err := j.Schedule("not a spec"); err == nil {
		t.Error("expected invalid spec error")
	}
}
