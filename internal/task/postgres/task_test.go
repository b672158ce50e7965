package postgres_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/workdeskhq/workdesk/internal/task"
	taskPostgres "github.com/workdeskhq/workdesk/internal/task/postgres"
)

func TestTaskPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Task Postgres Suite")
}

// SQLiteTask is a SQLite-compatible model for testing
type SQLiteTask struct {
	ID           string    `gorm:"primaryKey"`
	Title        string    `gorm:"column:title;not null"`
	Description  string    `gorm:"column:description"`
	AssignerID   string    `gorm:"column:assigner_id;not null"`
	AssigneeID   string    `gorm:"column:assignee_id;not null"`
	SupporterIDs string    `gorm:"column:supporter_ids;type:text"`
	Status       string    `gorm:"column:status;default:TODO"`
	Priority     string    `gorm:"column:priority;default:medium"`
	StartDate    time.Time `gorm:"column:start_date"`
	Deadline     time.Time `gorm:"column:deadline"`
	Subtasks     string    `gorm:"column:subtasks;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (SQLiteTask) TableName() string {
	return "tasks"
}

var _ = Describe("Task PostgreSQL Repository", func() {
	var (
		db   *gorm.DB
		repo task.Repository
	)

	BeforeEach(func() {
		var err error
		// Use SQLite in-memory database for testing
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteTask{})
		Expect(err).NotTo(HaveOccurred())

		repo = taskPostgres.NewTaskRepository(db)
	})

	newTask := func(id, assigneeID string, deadline time.Time) *task.Task {
		return &task.Task{
			ID:         id,
			Title:      "Design banner set",
			AssignerID: "manager",
			AssigneeID: assigneeID,
			Status:     task.StatusTodo,
			Priority:   task.PriorityMedium,
			Deadline:   deadline,
		}
	}

	Describe("Create", func() {
		It("should persist a task with its list columns", func() {
			t := newTask("t1", "staff", time.Date(2024, 10, 18, 0, 0, 0, 0, time.UTC))
			t.SupporterIDs = []string{"helper1", "helper2"}

			err := repo.Create(t)
			Expect(err).NotTo(HaveOccurred())

			stored, err := repo.GetByID("t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Title).To(Equal("Design banner set"))
			Expect([]string(stored.SupporterIDs)).To(Equal([]string{"helper1", "helper2"}))
		})
	})

	Describe("GetByID", func() {
		It("should return a domain error for a missing task", func() {
			_, err := repo.GetByID("missing")

			Expect(err).To(Equal(task.ErrTaskNotFound))
		})
	})

	Describe("GetByAssignee", func() {
		BeforeEach(func() {
			Expect(repo.Create(newTask("late", "staff", time.Date(2024, 10, 25, 0, 0, 0, 0, time.UTC)))).To(Succeed())
			Expect(repo.Create(newTask("soon", "staff", time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)))).To(Succeed())
			Expect(repo.Create(newTask("other", "peer", time.Date(2024, 10, 16, 0, 0, 0, 0, time.UTC)))).To(Succeed())
		})

		It("should return only the assignee's tasks ordered by deadline", func() {
			tasks, err := repo.GetByAssignee("staff")

			Expect(err).NotTo(HaveOccurred())
			Expect(tasks).To(HaveLen(2))
			Expect(tasks[0].ID).To(Equal("soon"))
			Expect(tasks[1].ID).To(Equal("late"))
		})

		It("should return an empty slice for an unknown assignee", func() {
			tasks, err := repo.GetByAssignee("nobody")

			Expect(err).NotTo(HaveOccurred())
			Expect(tasks).To(BeEmpty())
		})
	})

	Describe("Update", func() {
		It("should persist status changes and bump updated_at", func() {
			t := newTask("t1", "staff", time.Date(2024, 10, 18, 0, 0, 0, 0, time.UTC))
			Expect(repo.Create(t)).To(Succeed())
			originalUpdatedAt := t.UpdatedAt
			time.Sleep(10 * time.Millisecond)

			t.Status = task.StatusDone
			err := repo.Update(t)
			Expect(err).NotTo(HaveOccurred())

			stored, err := repo.GetByID("t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(task.StatusDone))
			Expect(stored.UpdatedAt).To(BeTemporally(">", originalUpdatedAt))
		})
	})

	Describe("Delete", func() {
		It("should remove the row", func() {
			Expect(repo.Create(newTask("t1", "staff", time.Date(2024, 10, 18, 0, 0, 0, 0, time.UTC)))).To(Succeed())

			err := repo.Delete("t1")
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.GetByID("t1")
			Expect(err).To(Equal(task.ErrTaskNotFound))
		})

		It("should handle a non-existent id gracefully", func() {
			Expect(repo.Delete("missing")).To(Succeed())
		})
	})
})
