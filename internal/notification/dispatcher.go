package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/workdeskhq/workdesk/internal/core/events"
	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/task"
	"github.com/workdeskhq/workdesk/internal/weeklyplan"
)

// Broadcaster delivers a payload to one connected member's sockets.
type Broadcaster interface {
	SendToUser(userID string, payload []byte)
}

// MemberSource resolves member names for alert bodies.
type MemberSource interface {
	GetByID(id string) (*member.Member, error)
}

// Subscriber registers a handler for one event kind and returns an
// unsubscribe function.
type Subscriber interface {
	Subscribe(kind string, handler events.Handler) func()
}

// Dispatcher listens to change events and fans alerts out to the
// in-app feed and the push sink. Push failures are logged and dropped.
type Dispatcher struct {
	broadcaster Broadcaster
	members     MemberSource
	sink        Sink
	logger      *slog.Logger

	unsubscribe []func()
}

func NewDispatcher(bus Subscriber, broadcaster Broadcaster, members MemberSource, sink Sink, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		broadcaster: broadcaster,
		members:     members,
		sink:        sink,
		logger:      logger,
	}
	d.unsubscribe = append(d.unsubscribe,
		bus.Subscribe(events.KindTask, d.onTaskEvent),
		bus.Subscribe(events.KindWeeklyPlan, d.onPlanEvent),
	)
	return d
}

// Close tears down the event subscriptions.
func (d *Dispatcher) Close() {
	for _, unsub := range d.unsubscribe {
		unsub()
	}
	d.unsubscribe = nil
}

func (d *Dispatcher) onTaskEvent(ctx context.Context, event events.ChangeEvent) error {
	t, ok := event.Record.(*task.Task)
	if !ok {
		d.logger.Warn("task event carried unexpected record type", "event_id", event.ID)
		return nil
	}

	assigneeName := ""
	if m, err := d.members.GetByID(t.AssigneeID); err == nil {
		assigneeName = m.Name
	}

	for _, alert := range Classify(event.Type, t, assigneeName) {
		d.deliver(alert)
	}
	return nil
}

// onPlanEvent notifies the approver of a fresh submission and the owner
// of a decision or close-out.
func (d *Dispatcher) onPlanEvent(ctx context.Context, event events.ChangeEvent) error {
	p, ok := event.Record.(*weeklyplan.WeeklyPlan)
	if !ok {
		d.logger.Warn("plan event carried unexpected record type", "event_id", event.ID)
		return nil
	}

	switch p.Status {
	case weeklyplan.StatusPending:
		ownerName := p.UserID
		if m, err := d.members.GetByID(p.UserID); err == nil {
			ownerName = m.Name
		}
		d.deliver(Alert{
			Type:        "plan_submitted",
			RecipientID: p.ApproverID,
			TaskID:      p.ID,
			Title:       "Weekly plan submitted",
			Body:        fmt.Sprintf("%s submitted a plan for week %d/%d", ownerName, p.Week, p.Year),
		})
	case weeklyplan.StatusApproved, weeklyplan.StatusRejected:
		d.deliver(Alert{
			Type:        "plan_decided",
			RecipientID: p.UserID,
			TaskID:      p.ID,
			Title:       "Weekly plan " + p.Status,
			Body:        p.ManagerFeedback,
			Push:        true,
		})
	}
	return nil
}

func (d *Dispatcher) deliver(alert Alert) {
	payload, err := json.Marshal(alert)
	if err != nil {
		d.logger.Error("failed to encode alert", "error", err, "type", alert.Type)
		return
	}
	d.broadcaster.SendToUser(alert.RecipientID, payload)

	if alert.Push {
		if err := d.sink.Show(alert.RecipientID, alert.Title, alert.Body); err != nil {
			d.logger.Warn("push delivery failed", "error", err, "recipient_id", alert.RecipientID)
		}
	}
}
