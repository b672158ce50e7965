package events_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workdeskhq/workdesk/internal/core/events"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("Bus", func() {
	var (
		bus *events.Bus
		ctx context.Context
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus = events.NewBus(logger)
		ctx = context.Background()
	})

	event := func(kind string) events.ChangeEvent {
		return events.ChangeEvent{
			ID:         "ev-1",
			Kind:       kind,
			Type:       events.ChangeAdded,
			OccurredAt: time.Now(),
		}
	}

	Describe("PublishSync", func() {
		It("delivers to subscribers of the event's kind only", func() {
			var taskEvents, memberEvents []events.ChangeEvent
			bus.Subscribe(events.KindTask, func(ctx context.Context, e events.ChangeEvent) error {
				taskEvents = append(taskEvents, e)
				return nil
			})
			bus.Subscribe(events.KindMember, func(ctx context.Context, e events.ChangeEvent) error {
				memberEvents = append(memberEvents, e)
				return nil
			})

			err := bus.PublishSync(ctx, event(events.KindTask))

			Expect(err).ToNot(HaveOccurred())
			Expect(taskEvents).To(HaveLen(1))
			Expect(memberEvents).To(BeEmpty())
		})

		It("calls subscribers in registration order", func() {
			var order []int
			bus.Subscribe(events.KindTask, func(ctx context.Context, e events.ChangeEvent) error {
				order = append(order, 1)
				return nil
			})
			bus.Subscribe(events.KindTask, func(ctx context.Context, e events.ChangeEvent) error {
				order = append(order, 2)
				return nil
			})

			err := bus.PublishSync(ctx, event(events.KindTask))

			Expect(err).ToNot(HaveOccurred())
			Expect(order).To(Equal([]int{1, 2}))
		})

		It("stops at the first failing handler", func() {
			var reached bool
			bus.Subscribe(events.KindTask, func(ctx context.Context, e events.ChangeEvent) error {
				return errors.New("handler blew up")
			})
			bus.Subscribe(events.KindTask, func(ctx context.Context, e events.ChangeEvent) error {
				reached = true
				return nil
			})

			err := bus.PublishSync(ctx, event(events.KindTask))

			Expect(err).To(HaveOccurred())
			Expect(reached).To(BeFalse())
		})
	})

	Describe("Subscribe", func() {
		It("stops delivery after unsubscribe", func() {
			var count int
			unsubscribe := bus.Subscribe(events.KindTask, func(ctx context.Context, e events.ChangeEvent) error {
				count++
				return nil
			})

			Expect(bus.PublishSync(ctx, event(events.KindTask))).To(Succeed())
			unsubscribe()
			Expect(bus.PublishSync(ctx, event(events.KindTask))).To(Succeed())

			Expect(count).To(Equal(1))
		})

		It("removes only the unsubscribed handler", func() {
			var first, second int
			unsubscribe := bus.Subscribe(events.KindTask, func(ctx context.Context, e events.ChangeEvent) error {
				first++
				return nil
			})
			bus.Subscribe(events.KindTask, func(ctx context.Context, e events.ChangeEvent) error {
				second++
				return nil
			})

			unsubscribe()
			Expect(bus.PublishSync(ctx, event(events.KindTask))).To(Succeed())

			Expect(first).To(BeZero())
			Expect(second).To(Equal(1))
		})
	})

	Describe("Publish", func() {
		It("delivers asynchronously", func() {
			done := make(chan events.ChangeEvent, 1)
			bus.Subscribe(events.KindWorkReport, func(ctx context.Context, e events.ChangeEvent) error {
				done <- e
				return nil
			})

			bus.Publish(ctx, event(events.KindWorkReport))

			var received events.ChangeEvent
			Eventually(done).Should(Receive(&received))
			Expect(received.ID).To(Equal("ev-1"))
		})
	})
})
