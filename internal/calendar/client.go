package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/inboxagent/internal/google"
)

// Client wraps the Google Calendar service for the primary calendar.
type Client struct {
	svc    *calendar.Service
	logger *slog.Logger
}

// NewClient creates a Calendar client using the configured Google
// credentials.
func NewClient(ctx context.Context, logger *slog.Logger) (*Client, error) {
	ts, err := google.GetTokenSource(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{svc: svc, logger: logger}, nil
}

// Availability returns the free slots on the primary calendar for one
// day, bounded to working hours.
func (c *Client) Availability(ctx context.Context, day string) (string, error) {
	date, err := parseDay(day)
	if err != nil {
		return "", err
	}
	dayStart := date
	dayEnd := date.Add(24 * time.Hour)

	res, err := c.svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: dayStart.Format(time.RFC3339),
		TimeMax: dayEnd.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: "primary"}},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to query free/busy: %w", err)
	}

	var busy []interval
	if cal, ok := res.Calendars["primary"]; ok {
		for _, period := range cal.Busy {
			start, err := time.Parse(time.RFC3339, period.Start)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, period.End)
			if err != nil {
				continue
			}
			busy = append(busy, interval{start: start, end: end})
		}
	}

	slots := freeSlots(date, busy)
	c.logger.Debug("availability checked",
		slog.String("day", day),
		slog.Int("busy_periods", len(busy)),
		slog.Int("free_slots", len(slots)))
	return fmt.Sprintf("Available times on %s: %s", day, formatSlots(slots)), nil
}

// Event describes a meeting to book.
type Event struct {
	Summary   string
	Attendees []string
	Start     time.Time
	End       time.Time
}

// CreateEvent inserts the event into the primary calendar and sends
// invitations to all attendees.
func (c *Client) CreateEvent(ctx context.Context, ev Event) (string, error) {
	if ev.Summary == "" {
		return "", fmt.Errorf("summary is required")
	}
	if !ev.End.After(ev.Start) {
		return "", fmt.Errorf("event end must be after start")
	}

	attendees := make([]*calendar.EventAttendee, 0, len(ev.Attendees))
	for _, a := range ev.Attendees {
		attendees = append(attendees, &calendar.EventAttendee{Email: a})
	}

	created, err := c.svc.Events.Insert("primary", &calendar.Event{
		Summary:   ev.Summary,
		Start:     &calendar.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:       &calendar.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
		Attendees: attendees,
		Reminders: &calendar.EventReminders{UseDefault: true, ForceSendFields: []string{"UseDefault"}},
	}).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	c.logger.Info("meeting scheduled",
		slog.String("event_id", created.Id),
		slog.Int("attendees", len(attendees)))
	return created.Id, nil
}
