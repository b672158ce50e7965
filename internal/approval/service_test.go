package approval_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/approval"
	"github.com/workdeskhq/workdesk/internal/core/events"
	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/permissions"
)

func TestApproval(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Approval Suite")
}

// Mock repository for testing
type mockApprovalRepository struct {
	requests map[string]*approval.ApprovalRequest
}

func newMockApprovalRepository() *mockApprovalRepository {
	return &mockApprovalRepository{requests: make(map[string]*approval.ApprovalRequest)}
}

func (m *mockApprovalRepository) Create(a *approval.ApprovalRequest) error {
	m.requests[a.ID] = a
	return nil
}

func (m *mockApprovalRepository) GetByID(id string) (*approval.ApprovalRequest, error) {
	a, ok := m.requests[id]
	if !ok {
		return nil, approval.ErrRequestNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockApprovalRepository) GetByRequester(requesterID string) ([]*approval.ApprovalRequest, error) {
	var out []*approval.ApprovalRequest
	for _, a := range m.requests {
		if a.RequesterID == requesterID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockApprovalRepository) GetByRequesterBetween(requesterID string, from, to time.Time) ([]*approval.ApprovalRequest, error) {
	var out []*approval.ApprovalRequest
	for _, a := range m.requests {
		if a.RequesterID == requesterID && !a.CreatedAt.Before(from) && !a.CreatedAt.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockApprovalRepository) GetPending() ([]*approval.ApprovalRequest, error) {
	var out []*approval.ApprovalRequest
	for _, a := range m.requests {
		if a.Status == approval.StatusPending || a.Status == approval.StatusChangesRequested {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockApprovalRepository) Update(a *approval.ApprovalRequest) error {
	m.requests[a.ID] = a
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

var _ = Describe("ApprovalService", func() {
	var (
		service  *approval.Service
		repo     *mockApprovalRepository
		perms    *mockPermissionChecker
		pub      *mockPublisher
		audit    *mockAuditRecorder
		ctx      context.Context
		designer *member.Member
		reviewer *member.Member
	)

	BeforeEach(func() {
		repo = newMockApprovalRepository()
		perms = &mockPermissionChecker{granted: map[permissions.Capability]bool{}}
		pub = &mockPublisher{}
		audit = &mockAuditRecorder{}
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		designer = &member.Member{ID: "designer", Name: "Derek Designer", Role: permissions.RoleDesigner, IsActive: true}
		reviewer = &member.Member{ID: "reviewer", Name: "Maya Manager", Role: permissions.RoleManager, IsActive: true}

		service = approval.NewService(repo, perms, pub, audit, logger)
	})

	openTicket := func() *approval.ApprovalRequest {
		a, err := service.CreateRequest(ctx, designer, approval.CreateRequestDTO{
			Title:    "Spring campaign key visual",
			AssetURL: "https://assets.workdesk.local/kv-spring.png",
		})
		Expect(err).ToNot(HaveOccurred())
		pub.events = nil
		return a
	}

	Describe("CreateRequest", func() {
		It("opens a pending ticket for the caller", func() {
			a, err := service.CreateRequest(ctx, designer, approval.CreateRequestDTO{Title: "Key visual"})

			Expect(err).ToNot(HaveOccurred())
			Expect(a.RequesterID).To(Equal("designer"))
			Expect(a.Status).To(Equal(approval.StatusPending))
		})

		It("requires a title", func() {
			_, err := service.CreateRequest(ctx, designer, approval.CreateRequestDTO{})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DecideRequest", func() {
		var ticket *approval.ApprovalRequest

		BeforeEach(func() {
			ticket = openTicket()
			perms.granted[permissions.CapApproveAssets] = true
		})

		It("approves the ticket", func() {
			a, err := service.DecideRequest(ctx, reviewer, ticket.ID, approval.DecideRequestDTO{Status: approval.StatusApproved})

			Expect(err).ToNot(HaveOccurred())
			Expect(a.Status).To(Equal(approval.StatusApproved))
			Expect(a.DecidedBy).To(Equal("reviewer"))
		})

		It("requires a note when not approving", func() {
			_, err := service.DecideRequest(ctx, reviewer, ticket.ID, approval.DecideRequestDTO{Status: approval.StatusRejected})

			Expect(err).To(HaveOccurred())
		})

		It("rejects with a note", func() {
			a, err := service.DecideRequest(ctx, reviewer, ticket.ID, approval.DecideRequestDTO{
				Status: approval.StatusRejected,
				Note:   "wrong aspect ratio",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(a.Status).To(Equal(approval.StatusRejected))
			Expect(a.DecisionNote).To(Equal("wrong aspect ratio"))
		})

		It("requires the approve-assets capability", func() {
			perms.granted[permissions.CapApproveAssets] = false

			_, err := service.DecideRequest(ctx, reviewer, ticket.ID, approval.DecideRequestDTO{Status: approval.StatusApproved})

			Expect(err).To(HaveOccurred())
		})

		It("refuses self-review", func() {
			_, err := service.DecideRequest(ctx, designer, ticket.ID, approval.DecideRequestDTO{Status: approval.StatusApproved})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeForbidden))
		})

		It("refuses a second decision on a decided ticket", func() {
			_, err := service.DecideRequest(ctx, reviewer, ticket.ID, approval.DecideRequestDTO{Status: approval.StatusApproved})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.DecideRequest(ctx, reviewer, ticket.ID, approval.DecideRequestDTO{
				Status: approval.StatusRejected,
				Note:   "changed my mind",
			})

			Expect(err).To(HaveOccurred())
		})

		It("leaves changes-requested tickets open for a fresh decision", func() {
			_, err := service.DecideRequest(ctx, reviewer, ticket.ID, approval.DecideRequestDTO{
				Status: approval.StatusChangesRequested,
				Note:   "tighten the copy",
			})
			Expect(err).ToNot(HaveOccurred())

			a, err := service.DecideRequest(ctx, reviewer, ticket.ID, approval.DecideRequestDTO{Status: approval.StatusApproved})

			Expect(err).ToNot(HaveOccurred())
			Expect(a.Status).To(Equal(approval.StatusApproved))
		})
	})

	Describe("GetPendingRequests", func() {
		BeforeEach(func() {
			openTicket()
			perms.granted[permissions.CapApproveAssets] = true
		})

		It("includes changes-requested tickets in the review queue", func() {
			second := openTicket()
			_, err := service.DecideRequest(ctx, reviewer, second.ID, approval.DecideRequestDTO{
				Status: approval.StatusChangesRequested,
				Note:   "tighten the copy",
			})
			Expect(err).ToNot(HaveOccurred())

			pending, err := service.GetPendingRequests(reviewer)

			Expect(err).ToNot(HaveOccurred())
			Expect(pending).To(HaveLen(2))
		})

		It("denies the queue without the approve-assets capability", func() {
			perms.granted[permissions.CapApproveAssets] = false

			_, err := service.GetPendingRequests(reviewer)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetRequestsForMember", func() {
		BeforeEach(func() {
			openTicket()
		})

		It("lets members list their own tickets", func() {
			list, err := service.GetRequestsForMember(designer, "designer")

			Expect(err).ToNot(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})

		It("hides other members' tickets from unprivileged callers", func() {
			_, err := service.GetRequestsForMember(reviewer, "designer")

			Expect(err).To(HaveOccurred())
		})

		It("lets reviewers list anyone's tickets", func() {
			perms.granted[permissions.CapApproveAssets] = true

			list, err := service.GetRequestsForMember(reviewer, "designer")

			Expect(err).ToNot(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})
	})
})
