package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/inboxagent/internal/agent"
	"github.com/teemow/inboxagent/internal/calendar"
	"github.com/teemow/inboxagent/internal/logging"
)

// Mailer sends email. *gmail.Client satisfies it.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

// Scheduler checks availability and books meetings. *calendar.Client
// satisfies it.
type Scheduler interface {
	Availability(ctx context.Context, day string) (string, error)
	CreateEvent(ctx context.Context, ev calendar.Event) (string, error)
}

// Live executes tool calls against the real Google services.
type Live struct {
	mail   Mailer
	cal    Scheduler
	logger *slog.Logger
}

// NewLive wires a live executor.
func NewLive(mail Mailer, cal Scheduler, logger *slog.Logger) *Live {
	if logger == nil {
		logger = slog.Default()
	}
	return &Live{mail: mail, cal: cal, logger: logger}
}

var _ agent.Executor = (*Live)(nil)

// WriteEmail sends the drafted email.
func (l *Live) WriteEmail(ctx context.Context, args agent.WriteEmailArgs) (string, error) {
	id, err := l.mail.Send(ctx, args.To, args.Subject, args.Content)
	if err != nil {
		return "", err
	}
	l.logger.Info("draft delivered",
		slog.String("message_id", id),
		slog.String("to", logging.AnonymizeEmail(args.To)))
	return fmt.Sprintf("Email sent to %s with subject '%s' (message %s)", args.To, args.Subject, id), nil
}

// ScheduleMeeting books the proposed meeting on the primary calendar.
func (l *Live) ScheduleMeeting(ctx context.Context, args agent.ScheduleMeetingArgs) (string, error) {
	day, err := time.Parse("2006-01-02", args.PreferredDay)
	if err != nil {
		return "", fmt.Errorf("invalid preferred_day %q, expected YYYY-MM-DD: %w", args.PreferredDay, err)
	}
	if args.StartTime < 0 || args.StartTime > 23 {
		return "", fmt.Errorf("invalid start_time %d, expected an hour between 0 and 23", args.StartTime)
	}
	if args.DurationMinutes <= 0 {
		return "", fmt.Errorf("invalid duration_minutes %d", args.DurationMinutes)
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), args.StartTime, 0, 0, 0, time.Local)
	eventID, err := l.cal.CreateEvent(ctx, calendar.Event{
		Summary:   args.Subject,
		Attendees: args.Attendees,
		Start:     start,
		End:       start.Add(time.Duration(args.DurationMinutes) * time.Minute),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Meeting '%s' scheduled on %s at %d for %d minutes with %d attendees (event %s)",
		args.Subject, args.PreferredDay, args.StartTime, args.DurationMinutes, len(args.Attendees), eventID), nil
}

// CheckCalendar reports the free slots on the requested day.
func (l *Live) CheckCalendar(ctx context.Context, args agent.CheckCalendarArgs) (string, error) {
	return l.cal.Availability(ctx, args.Day)
}
