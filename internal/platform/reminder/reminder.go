// Package reminder runs the daily appointment reminder job.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/events"
)

// Due is an appointment that needs a reminder.
type Due struct {
	AppointmentID string
	PatientID     string
	DoctorID      string
	Date          string
	Time          string
}

// Source lists the appointments due on a date (YYYY-MM-DD).
type Source interface {
	DueOn(ctx context.Context, date string) ([]Due, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, date string) ([]Due, error)

func (f SourceFunc) DueOn(ctx context.Context, date string) ([]Due, error) { return f(ctx, date) }

// Job publishes an appointment.reminder event for every appointment due
// the next day.
type Job struct {
	source    Source
	publisher events.Publisher
	logger    zerolog.Logger
	now       func() time.Time
	timeout   time.Duration
}

func NewJob(source Source, publisher events.Publisher, logger zerolog.Logger) *Job {
	return &Job{
		source:    source,
		publisher: publisher,
		logger:    logger.With().Str("component", "reminder").Logger(),
		now:       time.Now,
		timeout:   time.Minute,
	}
}

// Run sends reminders for tomorrow and returns how many were published.
func (j *Job) Run(ctx context.Context) (int, error) {
	date := j.now().AddDate(0, 0, 1).Format("2006-01-02")

	due, err := j.source.DueOn(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("list appointments due %s: %w", date, err)
	}

	sent := 0
	for _, d := range due {
		evt := events.New(events.AppointmentReminder, d.AppointmentID, map[string]string{
			"patient_id": d.PatientID,
			"doctor_id":  d.DoctorID,
			"date":       d.Date,
			"time":       d.Time,
		})
		if err := j.publisher.Publish(ctx, evt); err != nil {
			j.logger.Warn().Err(err).Str("appointment_id", d.AppointmentID).Msg("reminder not published")
			continue
		}
		sent++
	}
	j.logger.Info().Str("date", date).Int("due", len(due)).Int("sent", sent).Msg("reminders sent")
	return sent, nil
}

// Schedule registers the job on a cron scheduler using a standard
// five-field spec. The caller starts and stops the returned scheduler.
func (j *Job) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if _, err := j.Run(ctx); err != nil {
			j.logger.Error().Err(err).Msg("reminder job failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reminder job %q: %w", spec, err)
	}
	return c, nil
}
