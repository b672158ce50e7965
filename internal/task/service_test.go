package task_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/core/events"
	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/permissions"
	"github.com/workdeskhq/workdesk/internal/task"
)

func TestTask(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Task Suite")
}

// Mock repository for testing
type mockTaskRepository struct {
	tasks       map[string]*task.Task
	createError error
	updateError error
}

func newMockTaskRepository() *mockTaskRepository {
	return &mockTaskRepository{tasks: make(map[string]*task.Task)}
}

func (m *mockTaskRepository) Create(t *task.Task) error {
	if m.createError != nil {
		return m.createError
	}
	m.tasks[t.ID] = t
	return nil
}

func (m *mockTaskRepository) GetByID(id string) (*task.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *mockTaskRepository) GetByAssignee(assigneeID string) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range m.tasks {
		if t.AssigneeID == assigneeID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTaskRepository) GetAll() ([]*task.Task, error) {
	out := make([]*task.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTaskRepository) Update(t *task.Task) error {
	if m.updateError != nil {
		return m.updateError
	}
	m.tasks[t.ID] = t
	return nil
}

func (m *mockTaskRepository) Delete(id string) error {
	delete(m.tasks, id)
	return nil
}

type mockPermissionChecker struct {
	granted map[permissions.Capability]bool
}

func (m *mockPermissionChecker) HasCapability(role permissions.Role, cap permissions.Capability) bool {
	return m.granted[cap]
}

type mockPublisher struct {
	events []events.ChangeEvent
}

func (m *mockPublisher) Publish(ctx context.Context, event events.ChangeEvent) {
	m.events = append(m.events, event)
}

type mockAuditRecorder struct {
	actions []string
}

func (m *mockAuditRecorder) Record(ctx context.Context, action, actorID, actorName, targetType, targetID string) {
	m.actions = append(m.actions, action)
}

var _ = Describe("TaskService", func() {
	var (
		service *task.Service
		repo    *mockTaskRepository
		perms   *mockPermissionChecker
		pub     *mockPublisher
		audit   *mockAuditRecorder
		ctx     context.Context

		manager   *member.Member
		staff     *member.Member
		bystander *member.Member
		deadline  time.Time
	)

	BeforeEach(func() {
		repo = newMockTaskRepository()
		perms = &mockPermissionChecker{granted: map[permissions.Capability]bool{}}
		pub = &mockPublisher{}
		audit = &mockAuditRecorder{}
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		manager = &member.Member{ID: "manager", Name: "Maya Manager", Role: permissions.RoleManager, IsActive: true}
		staff = &member.Member{ID: "staff", Name: "Sam Staff", Role: permissions.RoleStaff, IsActive: true}
		bystander = &member.Member{ID: "bystander", Name: "Bea Bystander", Role: permissions.RoleStaff, IsActive: true}
		deadline = time.Now().AddDate(0, 0, 7)

		service = task.NewService(repo, perms, pub, audit, logger)
	})

	createTask := func() *task.Task {
		perms.granted[permissions.CapAssignTasks] = true
		t, err := service.CreateTask(ctx, manager, task.CreateTaskDTO{
			Title:      "Design banner set",
			AssigneeID: "staff",
			Deadline:   deadline,
		})
		Expect(err).ToNot(HaveOccurred())
		pub.events = nil
		return t
	}

	Describe("CreateTask", func() {
		BeforeEach(func() {
			perms.granted[permissions.CapAssignTasks] = true
		})

		It("assigns a new task in TODO with medium priority", func() {
			t, err := service.CreateTask(ctx, manager, task.CreateTaskDTO{
				Title:      "Design banner set",
				AssigneeID: "staff",
				Deadline:   deadline,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(t.AssignerID).To(Equal("manager"))
			Expect(t.AssigneeID).To(Equal("staff"))
			Expect(t.Status).To(Equal(task.StatusTodo))
			Expect(t.Priority).To(Equal(task.PriorityMedium))
		})

		It("requires the assign-tasks capability", func() {
			perms.granted[permissions.CapAssignTasks] = false

			_, err := service.CreateTask(ctx, staff, task.CreateTaskDTO{
				Title:      "Design banner set",
				AssigneeID: "staff",
				Deadline:   deadline,
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeForbidden))
		})

		It("requires a deadline", func() {
			_, err := service.CreateTask(ctx, manager, task.CreateTaskDTO{
				Title:      "Design banner set",
				AssigneeID: "staff",
			})

			Expect(err).To(HaveOccurred())
		})

		It("rejects a deadline before the start date", func() {
			_, err := service.CreateTask(ctx, manager, task.CreateTaskDTO{
				Title:      "Design banner set",
				AssigneeID: "staff",
				StartDate:  deadline,
				Deadline:   deadline.AddDate(0, 0, -3),
			})

			Expect(err).To(HaveOccurred())
		})

		It("publishes an added event for the notification rules", func() {
			_, err := service.CreateTask(ctx, manager, task.CreateTaskDTO{
				Title:      "Design banner set",
				AssigneeID: "staff",
				Deadline:   deadline,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(pub.events).To(HaveLen(1))
			Expect(pub.events[0].Kind).To(Equal(events.KindTask))
			Expect(pub.events[0].Type).To(Equal(events.ChangeAdded))
		})

		It("wraps repository failures", func() {
			repo.createError = errors.New("connection reset")

			_, err := service.CreateTask(ctx, manager, task.CreateTaskDTO{
				Title:      "Design banner set",
				AssigneeID: "staff",
				Deadline:   deadline,
			})

			Expect(err).To(HaveOccurred())
			Expect(pub.events).To(BeEmpty())
		})
	})

	Describe("UpdateStatus", func() {
		var existing *task.Task

		BeforeEach(func() {
			existing = createTask()
		})

		It("lets the assignee move the task", func() {
			t, err := service.UpdateStatus(ctx, staff, existing.ID, task.UpdateStatusDTO{Status: task.StatusInProgress})

			Expect(err).ToNot(HaveOccurred())
			Expect(t.Status).To(Equal(task.StatusInProgress))
		})

		It("lets the assigner move the task", func() {
			_, err := service.UpdateStatus(ctx, manager, existing.ID, task.UpdateStatusDTO{Status: task.StatusCancelled})

			Expect(err).ToNot(HaveOccurred())
		})

		It("allows any valid status without a transition table", func() {
			_, err := service.UpdateStatus(ctx, staff, existing.ID, task.UpdateStatusDTO{Status: task.StatusDone})
			Expect(err).ToNot(HaveOccurred())

			t, err := service.UpdateStatus(ctx, staff, existing.ID, task.UpdateStatusDTO{Status: task.StatusTodo})

			Expect(err).ToNot(HaveOccurred())
			Expect(t.Status).To(Equal(task.StatusTodo))
		})

		It("rejects an unknown status", func() {
			_, err := service.UpdateStatus(ctx, staff, existing.ID, task.UpdateStatusDTO{Status: "PARKED"})

			Expect(err).To(HaveOccurred())
		})

		It("denies non-participants without the edit capability", func() {
			_, err := service.UpdateStatus(ctx, bystander, existing.ID, task.UpdateStatusDTO{Status: task.StatusDone})

			Expect(err).To(HaveOccurred())
		})

		It("lets an edit-capability holder move any task", func() {
			perms.granted[permissions.CapEdit] = true

			_, err := service.UpdateStatus(ctx, bystander, existing.ID, task.UpdateStatusDTO{Status: task.StatusDone})

			Expect(err).ToNot(HaveOccurred())
		})

		It("publishes a modified event", func() {
			_, err := service.UpdateStatus(ctx, staff, existing.ID, task.UpdateStatusDTO{Status: task.StatusDone})

			Expect(err).ToNot(HaveOccurred())
			Expect(pub.events).To(HaveLen(1))
			Expect(pub.events[0].Type).To(Equal(events.ChangeModified))
		})
	})

	Describe("UpdateTask", func() {
		var existing *task.Task

		BeforeEach(func() {
			existing = createTask()
		})

		It("lets a supporter edit the task", func() {
			existing.SupporterIDs = []string{"bystander"}
			repo.tasks[existing.ID] = existing

			_, err := service.UpdateTask(ctx, bystander, existing.ID, task.UpdateTaskDTO{Title: "Design full banner set"})

			Expect(err).ToNot(HaveOccurred())
		})

		It("reassigns the task", func() {
			t, err := service.UpdateTask(ctx, manager, existing.ID, task.UpdateTaskDTO{AssigneeID: "bystander"})

			Expect(err).ToNot(HaveOccurred())
			Expect(t.AssigneeID).To(Equal("bystander"))
		})

		It("returns not found for a missing task", func() {
			_, err := service.UpdateTask(ctx, manager, "missing", task.UpdateTaskDTO{Title: "x"})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeTaskNotFound))
		})
	})

	Describe("DeleteTask", func() {
		var existing *task.Task

		BeforeEach(func() {
			existing = createTask()
		})

		It("requires the delete capability", func() {
			err := service.DeleteTask(ctx, manager, existing.ID)

			Expect(err).To(HaveOccurred())
		})

		It("removes the task and publishes a removed event", func() {
			perms.granted[permissions.CapDelete] = true

			err := service.DeleteTask(ctx, manager, existing.ID)

			Expect(err).ToNot(HaveOccurred())
			_, err = service.GetTask(existing.ID)
			Expect(err).To(HaveOccurred())
			Expect(pub.events).To(HaveLen(1))
			Expect(pub.events[0].Type).To(Equal(events.ChangeRemoved))
		})
	})
})
