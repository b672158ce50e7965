package weeklyplan_test

import (
	"context"
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
	"github.com/workdeskhq/workdesk/internal/personaltask"
	"github.com/workdeskhq/workdesk/internal/weeklyplan"
)

func TestWeeklyPlan(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "WeeklyPlan Suite")
}

// Mock repository for testing
type mockPlanRepository struct {
	plans       map[string]*weeklyplan.WeeklyPlan
	upsertError error
	getError    error
}

func newMockPlanRepository() *mockPlanRepository {
	return &mockPlanRepository{plans: make(map[string]*weeklyplan.WeeklyPlan)}
}

func (m *mockPlanRepository) GetByID(id string) (*weeklyplan.WeeklyPlan, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	p, ok := m.plans[id]
	if !ok {
		return nil, weeklyplan.ErrPlanNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockPlanRepository) GetByUser(userID string) ([]*weeklyplan.WeeklyPlan, error) {
	var out []*weeklyplan.WeeklyPlan
	for _, p := range m.plans {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPlanRepository) GetPendingForApprover(approverID string) ([]*weeklyplan.WeeklyPlan, error) {
	var out []*weeklyplan.WeeklyPlan
	for _, p := range m.plans {
		if p.ApproverID == approverID && p.Status == weeklyplan.StatusPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPlanRepository) Upsert(p *weeklyplan.WeeklyPlan) error {
	if m.upsertError != nil {
		return m.upsertError
	}
	copied := *p
	m.plans[p.ID] = &copied
	return nil
}

// Mock task source backed by a static day->tasks map
type mockTaskSource struct {
	tasks []*personaltask.PersonalTask
}

func (m *mockTaskSource) GetByOwnerBetween(ownerID, fromDay, toDay string) ([]*personaltask.PersonalTask, error) {
	var out []*personaltask.PersonalTask
	for _, t := range m.tasks {
		if t.OwnerID == ownerID && t.Day >= fromDay && t.Day <= toDay {
			out = append(out, t)
		}
	}
	return out, nil
}

type mockMemberSource struct {
	roster []*member.Member
}

func (m *mockMemberSource) GetByID(id string) (*member.Member, error) {
	for _, mem := range m.roster {
		if mem.ID == id {
			return mem, nil
		}
	}
	return nil, member.ErrMemberNotFound
}

func (m *mockMemberSource) GetAll() ([]*member.Member, error) {
	return m.roster, nil
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

func newTestMember(id string, role permissions.Role, reportsTo string) *member.Member {
	return &member.Member{
		ID:        id,
		Name:      id,
		Email:     id + "@workdesk.local",
		Role:      role,
		ReportsTo: reportsTo,
		IsActive:  true,
	}
}

var _ = Describe("PlanID", func() {
	It("derives the same id for any day in the same ISO week", func() {
		monday := time.Date(2024, 10, 14, 0, 0, 0, 0, time.UTC)
		thursday := time.Date(2024, 10, 17, 0, 0, 0, 0, time.UTC)
		sunday := time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)

		Expect(weeklyplan.PlanID("u1", monday)).To(Equal("u1_2024_W42"))
		Expect(weeklyplan.PlanID("u1", thursday)).To(Equal("u1_2024_W42"))
		Expect(weeklyplan.PlanID("u1", sunday)).To(Equal("u1_2024_W42"))
	})

	It("uses the ISO year at the calendar year boundary", func() {
		// 2024-12-30 is the Monday of ISO week 1, 2025
		dec30 := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)

		Expect(weeklyplan.PlanID("u1", dec30)).To(Equal("u1_2025_W1"))
	})

	It("derives different ids for different members", func() {
		day := time.Date(2024, 10, 14, 0, 0, 0, 0, time.UTC)

		Expect(weeklyplan.PlanID("u1", day)).ToNot(Equal(weeklyplan.PlanID("u2", day)))
	})
})

var _ = Describe("WeekBounds", func() {
	It("returns the Monday and Sunday of an ISO week", func() {
		start, end := weeklyplan.WeekBounds(2024, 42)

		Expect(start).To(Equal(time.Date(2024, 10, 14, 0, 0, 0, 0, time.UTC)))
		Expect(end).To(Equal(time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)))
	})

	It("handles week 1 spilling into the previous calendar year", func() {
		start, end := weeklyplan.WeekBounds(2025, 1)

		Expect(start).To(Equal(time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)))
		Expect(end).To(Equal(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)))
	})
})

var _ = Describe("ResolveDefaultApprover", func() {
	var (
		board   *member.Member
		manager *member.Member
		leader  *member.Member
	)

	BeforeEach(func() {
		board = newTestMember("board", permissions.RoleBoard, "")
		manager = newTestMember("manager", permissions.RoleManager, "Board of Directors")
		leader = newTestMember("leader", permissions.RoleContentLeader, "Manager")
	})

	It("matches the reportsTo text against role labels", func() {
		staff := newTestMember("staff", permissions.RoleStaff, "Content Leader")
		roster := []*member.Member{board, manager, leader, staff}

		resolved := weeklyplan.ResolveDefaultApprover(staff, roster)

		Expect(resolved).ToNot(BeNil())
		Expect(resolved.ID).To(Equal("leader"))
	})

	It("reroutes board-bound plans of junior members to the manager", func() {
		staff := newTestMember("staff", permissions.RoleStaff, "Board of Directors")
		roster := []*member.Member{board, manager, staff}

		resolved := weeklyplan.ResolveDefaultApprover(staff, roster)

		Expect(resolved).ToNot(BeNil())
		Expect(resolved.ID).To(Equal("manager"))
	})

	It("lets manager-rank members report straight to the board", func() {
		roster := []*member.Member{board, manager}

		resolved := weeklyplan.ResolveDefaultApprover(manager, roster)

		Expect(resolved).ToNot(BeNil())
		Expect(resolved.ID).To(Equal("board"))
	})

	It("skips inactive members", func() {
		leader.IsActive = false
		staff := newTestMember("staff", permissions.RoleStaff, "Content Leader")
		roster := []*member.Member{leader, staff}

		Expect(weeklyplan.ResolveDefaultApprover(staff, roster)).To(BeNil())
	})

	It("returns nil when nothing matches", func() {
		staff := newTestMember("staff", permissions.RoleStaff, "Nonexistent Label")
		roster := []*member.Member{board, manager, staff}

		Expect(weeklyplan.ResolveDefaultApprover(staff, roster)).To(BeNil())
	})
})

var _ = Describe("ApproverCandidates", func() {
	var roster []*member.Member

	BeforeEach(func() {
		roster = []*member.Member{
			newTestMember("board", permissions.RoleBoard, ""),
			newTestMember("manager", permissions.RoleManager, "Board of Directors"),
			newTestMember("leader", permissions.RoleContentLeader, "Manager"),
			newTestMember("designer", permissions.RoleDesigner, "Content Leader"),
		}
	})

	It("offers leaders to junior submitters", func() {
		submitter := newTestMember("staff", permissions.RoleStaff, "Content Leader")

		candidates := weeklyplan.ApproverCandidates(submitter, roster)

		ids := make([]string, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, c.ID)
		}
		Expect(ids).To(ConsistOf("board", "manager", "leader"))
	})

	It("does not offer leaders to manager-rank submitters", func() {
		submitter := newTestMember("other_manager", permissions.RoleContentManager, "Manager")

		candidates := weeklyplan.ApproverCandidates(submitter, roster)

		ids := make([]string, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, c.ID)
		}
		Expect(ids).To(ConsistOf("board", "manager"))
	})

	It("never offers the submitter to themselves", func() {
		submitter := roster[2] // the leader

		candidates := weeklyplan.ApproverCandidates(submitter, roster)

		for _, c := range candidates {
			Expect(c.ID).ToNot(Equal(submitter.ID))
		}
	})
})

var _ = Describe("WeeklyPlanService", func() {
	var (
		service  *weeklyplan.Service
		repo     *mockPlanRepository
		tasks    *mockTaskSource
		members  *mockMemberSource
		perms    *mockPermissionChecker
		pub      *mockPublisher
		audit    *mockAuditRecorder
		logger   *slog.Logger
		ctx      context.Context
		staff    *member.Member
		leader   *member.Member
		outsider *member.Member
	)

	// week 42 of 2024: Monday 2024-10-14 through Sunday 2024-10-20
	const weekOf = "2024-10-16"
	const planID = "staff_2024_W42"

	BeforeEach(func() {
		repo = newMockPlanRepository()
		tasks = &mockTaskSource{}
		perms = &mockPermissionChecker{granted: map[permissions.Capability]bool{}}
		pub = &mockPublisher{}
		audit = &mockAuditRecorder{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx = context.Background()

		staff = newTestMember("staff", permissions.RoleStaff, "Content Leader")
		leader = newTestMember("leader", permissions.RoleContentLeader, "Manager")
		outsider = newTestMember("outsider", permissions.RoleCopywriter, "Content Leader")
		members = &mockMemberSource{roster: []*member.Member{staff, leader, outsider}}

		service = weeklyplan.NewService(repo, tasks, members, perms, pub, audit, logger)
	})

	addWeekTasks := func(ids ...string) {
		for _, id := range ids {
			tasks.tasks = append(tasks.tasks, &personaltask.PersonalTask{
				ID: id, OwnerID: "staff", Title: id, Day: "2024-10-15",
			})
		}
	}

	Describe("Submit", func() {
		Context("when the week has tasks", func() {
			BeforeEach(func() {
				addWeekTasks("pt1", "pt2")
			})

			It("creates a pending plan with the committed snapshot", func() {
				plan, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf})

				Expect(err).ToNot(HaveOccurred())
				Expect(plan.ID).To(Equal(planID))
				Expect(plan.Status).To(Equal(weeklyplan.StatusPending))
				Expect(plan.Year).To(Equal(2024))
				Expect(plan.Week).To(Equal(42))
				Expect([]string(plan.CommittedTaskIDs)).To(ConsistOf("pt1", "pt2"))
			})

			It("resolves the approver from the reportsTo label", func() {
				plan, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf})

				Expect(err).ToNot(HaveOccurred())
				Expect(plan.ApproverID).To(Equal("leader"))
			})

			It("accepts an explicit approver from the candidate list", func() {
				plan, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf, ApproverID: "leader"})

				Expect(err).ToNot(HaveOccurred())
				Expect(plan.ApproverID).To(Equal("leader"))
			})

			It("rejects an approver outside the candidate list", func() {
				_, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf, ApproverID: "outsider"})

				Expect(err).To(HaveOccurred())
				Expect(repo.plans).To(BeEmpty())
			})

			It("publishes an added event", func() {
				_, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf})

				Expect(err).ToNot(HaveOccurred())
				Expect(pub.events).To(HaveLen(1))
				Expect(pub.events[0].Kind).To(Equal(events.KindWeeklyPlan))
				Expect(pub.events[0].Type).To(Equal(events.ChangeAdded))
			})

			It("blocks resubmission while the plan is pending", func() {
				_, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf})
				Expect(err).ToNot(HaveOccurred())

				_, err = service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf})

				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodePlanBadTransition))
			})

			It("allows resubmission after rejection and clears the feedback", func() {
				plan, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf})
				Expect(err).ToNot(HaveOccurred())
				firstCreated := plan.CreatedAt

				_, err = service.Reject(ctx, leader, planID, weeklyplan.DecisionDTO{Feedback: "too vague"})
				Expect(err).ToNot(HaveOccurred())

				addWeekTasks("pt3")
				resubmitted, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf})

				Expect(err).ToNot(HaveOccurred())
				Expect(resubmitted.Status).To(Equal(weeklyplan.StatusPending))
				Expect(resubmitted.ManagerFeedback).To(BeEmpty())
				Expect(resubmitted.CreatedAt).To(Equal(firstCreated))
				Expect([]string(resubmitted.CommittedTaskIDs)).To(ConsistOf("pt1", "pt2", "pt3"))
			})
		})

		Context("when the week is empty", func() {
			It("refuses the submission and writes nothing", func() {
				_, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf})

				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodePlanEmptyWeek))
				Expect(repo.plans).To(BeEmpty())
				Expect(pub.events).To(BeEmpty())
			})
		})
	})

	Describe("Approve and Reject", func() {
		BeforeEach(func() {
			addWeekTasks("pt1")
			_, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf})
			Expect(err).ToNot(HaveOccurred())
		})

		It("lets the approver approve a pending plan", func() {
			plan, err := service.Approve(ctx, leader, planID, weeklyplan.DecisionDTO{Feedback: "looks good"})

			Expect(err).ToNot(HaveOccurred())
			Expect(plan.Status).To(Equal(weeklyplan.StatusApproved))
			Expect(plan.ManagerFeedback).To(Equal("looks good"))
		})

		It("denies a decision from anyone else", func() {
			_, err := service.Approve(ctx, outsider, planID, weeklyplan.DecisionDTO{})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeForbidden))
		})

		It("lets a manage-team holder decide in the approver's place", func() {
			perms.granted[permissions.CapManageTeam] = true

			plan, err := service.Approve(ctx, outsider, planID, weeklyplan.DecisionDTO{})

			Expect(err).ToNot(HaveOccurred())
			Expect(plan.Status).To(Equal(weeklyplan.StatusApproved))
		})

		It("requires feedback on rejection", func() {
			_, err := service.Reject(ctx, leader, planID, weeklyplan.DecisionDTO{})

			Expect(err).To(HaveOccurred())
			Expect(repo.plans[planID].Status).To(Equal(weeklyplan.StatusPending))
		})

		It("rejects with feedback attached", func() {
			plan, err := service.Reject(ctx, leader, planID, weeklyplan.DecisionDTO{Feedback: "redo the estimates"})

			Expect(err).ToNot(HaveOccurred())
			Expect(plan.Status).To(Equal(weeklyplan.StatusRejected))
			Expect(plan.ManagerFeedback).To(Equal("redo the estimates"))
		})

		It("refuses to decide an already approved plan again", func() {
			_, err := service.Approve(ctx, leader, planID, weeklyplan.DecisionDTO{})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Approve(ctx, leader, planID, weeklyplan.DecisionDTO{})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Finalize", func() {
		BeforeEach(func() {
			addWeekTasks("pt1")
			_, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf})
			Expect(err).ToNot(HaveOccurred())
		})

		It("refuses to finalize a plan that was never approved", func() {
			_, err := service.Finalize(ctx, staff, planID, weeklyplan.FinalizePlanDTO{Rating: 4})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodePlanBadTransition))
		})

		Context("once approved", func() {
			BeforeEach(func() {
				_, err := service.Approve(ctx, leader, planID, weeklyplan.DecisionDTO{})
				Expect(err).ToNot(HaveOccurred())
			})

			It("closes out the week with the owner's self-review", func() {
				plan, err := service.Finalize(ctx, staff, planID, weeklyplan.FinalizePlanDTO{
					Rating: 4, Highlights: "shipped the campaign", Improvements: "start earlier",
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(plan.Status).To(Equal(weeklyplan.StatusCompleted))
				Expect(plan.HasReview()).To(BeTrue())
				Expect(*plan.ReviewRating).To(Equal(4))
			})

			It("denies finalization by anyone but the owner", func() {
				_, err := service.Finalize(ctx, leader, planID, weeklyplan.FinalizePlanDTO{Rating: 4})

				Expect(err).To(HaveOccurred())
			})

			It("treats the completed state as terminal", func() {
				_, err := service.Finalize(ctx, staff, planID, weeklyplan.FinalizePlanDTO{Rating: 4})
				Expect(err).ToNot(HaveOccurred())

				_, err = service.Finalize(ctx, staff, planID, weeklyplan.FinalizePlanDTO{Rating: 5})
				Expect(err).To(HaveOccurred())

				_, err = service.Approve(ctx, leader, planID, weeklyplan.DecisionDTO{})
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("SetManagerEval", func() {
		BeforeEach(func() {
			addWeekTasks("pt1")
			_, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf})
			Expect(err).ToNot(HaveOccurred())
		})

		It("refuses an evaluation before approval", func() {
			_, err := service.SetManagerEval(ctx, leader, planID, weeklyplan.ManagerEvalDTO{Rating: 3})

			Expect(err).To(HaveOccurred())
		})

		It("attaches the approver's rating to an approved week", func() {
			_, err := service.Approve(ctx, leader, planID, weeklyplan.DecisionDTO{})
			Expect(err).ToNot(HaveOccurred())

			plan, err := service.SetManagerEval(ctx, leader, planID, weeklyplan.ManagerEvalDTO{Rating: 5, Comment: "strong week"})

			Expect(err).ToNot(HaveOccurred())
			Expect(*plan.ManagerEvalRating).To(Equal(5))
			Expect(plan.ManagerEvalComment).To(Equal("strong week"))
		})
	})

	Describe("CheckTaskMutable", func() {
		BeforeEach(func() {
			addWeekTasks("pt1")
			_, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf})
			Expect(err).ToNot(HaveOccurred())
		})

		It("freezes committed tasks while the plan is pending", func() {
			err := service.CheckTaskMutable("staff", "2024-10-15", "pt1")

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodePlanLocked))
		})

		It("keeps committed tasks frozen after approval", func() {
			_, err := service.Approve(ctx, leader, planID, weeklyplan.DecisionDTO{})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.CheckTaskMutable("staff", "2024-10-15", "pt1")).To(HaveOccurred())
		})

		It("unlocks committed tasks on rejection", func() {
			_, err := service.Reject(ctx, leader, planID, weeklyplan.DecisionDTO{Feedback: "rework"})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.CheckTaskMutable("staff", "2024-10-15", "pt1")).To(Succeed())
		})

		It("never locks tasks added after the snapshot", func() {
			Expect(service.CheckTaskMutable("staff", "2024-10-15", "pt-adhoc")).To(Succeed())
		})

		It("never locks monthly goals", func() {
			Expect(service.CheckTaskMutable("staff", "2024-10", "pt1")).To(Succeed())
		})

		It("allows everything when no plan exists for the week", func() {
			Expect(service.CheckTaskMutable("staff", "2024-11-12", "pt1")).To(Succeed())
		})
	})

	Describe("GetPlan", func() {
		BeforeEach(func() {
			addWeekTasks("pt1")
			_, err := service.Submit(ctx, staff, weeklyplan.SubmitPlanDTO{WeekOf: weekOf})
			Expect(err).ToNot(HaveOccurred())
		})

		It("is visible to the owner and the approver", func() {
			_, err := service.GetPlan(staff, planID)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.GetPlan(leader, planID)
			Expect(err).ToNot(HaveOccurred())
		})

		It("is hidden from unrelated members without view-reports", func() {
			_, err := service.GetPlan(outsider, planID)

			Expect(err).To(HaveOccurred())
		})

		It("is visible to view-reports holders", func() {
			perms.granted[permissions.CapViewReports] = true

			_, err := service.GetPlan(outsider, planID)

			Expect(err).ToNot(HaveOccurred())
		})

		It("resolves a plan by user and week date", func() {
			plan, err := service.GetPlanForWeek(staff, "staff", "2024-10-20")

			Expect(err).ToNot(HaveOccurred())
			Expect(plan.ID).To(Equal(planID))
		})
	})
})
