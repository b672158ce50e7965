package systemconfig_test

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
	"github.com/workdeskhq/workdesk/internal/systemconfig"
)

func TestSystemConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SystemConfig Suite")
}

// Mock repository for testing
type mockAnnouncementRepository struct {
	announcements map[string]*systemconfig.Announcement
}

func newMockAnnouncementRepository() *mockAnnouncementRepository {
	return &mockAnnouncementRepository{announcements: make(map[string]*systemconfig.Announcement)}
}

func (m *mockAnnouncementRepository) Create(a *systemconfig.Announcement) error {
	m.announcements[a.ID] = a
	return nil
}

func (m *mockAnnouncementRepository) GetByID(id string) (*systemconfig.Announcement, error) {
	a, ok := m.announcements[id]
	if !ok {
		return nil, systemconfig.ErrAnnouncementNotFound
	}
	return a, nil
}

func (m *mockAnnouncementRepository) GetAll() ([]*systemconfig.Announcement, error) {
	out := make([]*systemconfig.Announcement, 0, len(m.announcements))
	for _, a := range m.announcements {
		out = append(out, a)
	}
	return out, nil
}

func (m *mockAnnouncementRepository) Delete(id string) error {
	delete(m.announcements, id)
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

var _ = Describe("Announcement", func() {
	Describe("IsActiveAt", func() {
		It("is active inside its window", func() {
			a := &systemconfig.Announcement{
				StartsAt: time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC),
				EndsAt:   time.Date(2024, 10, 18, 18, 0, 0, 0, time.UTC),
			}

			Expect(a.IsActiveAt(time.Date(2024, 10, 16, 12, 0, 0, 0, time.UTC))).To(BeTrue())
		})

		It("is inactive before the window opens", func() {
			a := &systemconfig.Announcement{StartsAt: time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC)}

			Expect(a.IsActiveAt(time.Date(2024, 10, 13, 12, 0, 0, 0, time.UTC))).To(BeFalse())
		})

		It("is inactive after the window closes", func() {
			a := &systemconfig.Announcement{
				StartsAt: time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC),
				EndsAt:   time.Date(2024, 10, 18, 18, 0, 0, 0, time.UTC),
			}

			Expect(a.IsActiveAt(time.Date(2024, 10, 19, 9, 0, 0, 0, time.UTC))).To(BeFalse())
		})

		It("never expires with a zero end", func() {
			a := &systemconfig.Announcement{StartsAt: time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC)}

			Expect(a.IsActiveAt(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))).To(BeTrue())
		})
	})
})

var _ = Describe("SystemConfigService", func() {
	var (
		service *systemconfig.Service
		repo    *mockAnnouncementRepository
		perms   *mockPermissionChecker
		pub     *mockPublisher
		ctx     context.Context
		admin   *member.Member
		staff   *member.Member
	)

	BeforeEach(func() {
		repo = newMockAnnouncementRepository()
		perms = &mockPermissionChecker{granted: map[permissions.Capability]bool{}}
		pub = &mockPublisher{}
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		admin = &member.Member{ID: "admin", Name: "Maya Manager", Role: permissions.RoleManager, IsActive: true}
		staff = &member.Member{ID: "staff", Name: "Sam Staff", Role: permissions.RoleStaff, IsActive: true}

		service = systemconfig.NewService(repo, perms, pub, logger)
	})

	Describe("CreateAnnouncement", func() {
		BeforeEach(func() {
			perms.granted[permissions.CapConfigureSystem] = true
		})

		It("posts a notice attributed to the caller", func() {
			a, err := service.CreateAnnouncement(ctx, admin, systemconfig.CreateAnnouncementDTO{
				Title:   "Office closed Friday",
				Message: "National holiday",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(a.CreatedBy).To(Equal("admin"))
			Expect(a.StartsAt).ToNot(BeZero())
		})

		It("requires the configure-system capability", func() {
			perms.granted[permissions.CapConfigureSystem] = false

			_, err := service.CreateAnnouncement(ctx, staff, systemconfig.CreateAnnouncementDTO{Title: "nope"})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeForbidden))
		})

		It("requires a title", func() {
			_, err := service.CreateAnnouncement(ctx, admin, systemconfig.CreateAnnouncementDTO{Message: "no title"})

			Expect(err).To(HaveOccurred())
		})

		It("rejects a window that ends before it starts", func() {
			starts := time.Date(2024, 10, 18, 0, 0, 0, 0, time.UTC)
			ends := starts.AddDate(0, 0, -2)

			_, err := service.CreateAnnouncement(ctx, admin, systemconfig.CreateAnnouncementDTO{
				Title:    "broken window",
				StartsAt: starts,
				EndsAt:   &ends,
			})

			Expect(err).To(HaveOccurred())
		})

		It("publishes a system config event", func() {
			_, err := service.CreateAnnouncement(ctx, admin, systemconfig.CreateAnnouncementDTO{Title: "Office closed Friday"})

			Expect(err).ToNot(HaveOccurred())
			Expect(pub.events).To(HaveLen(1))
			Expect(pub.events[0].Kind).To(Equal(events.KindSystemConfig))
			Expect(pub.events[0].Type).To(Equal(events.ChangeAdded))
		})
	})

	Describe("ActiveAnnouncements", func() {
		It("returns only notices whose window contains now", func() {
			now := time.Date(2024, 10, 16, 12, 0, 0, 0, time.UTC)
			repo.announcements["past"] = &systemconfig.Announcement{
				ID:       "past",
				StartsAt: now.AddDate(0, 0, -10),
				EndsAt:   now.AddDate(0, 0, -5),
			}
			repo.announcements["current"] = &systemconfig.Announcement{
				ID:       "current",
				StartsAt: now.AddDate(0, 0, -1),
			}
			repo.announcements["future"] = &systemconfig.Announcement{
				ID:       "future",
				StartsAt: now.AddDate(0, 0, 3),
			}

			active, err := service.ActiveAnnouncements(now)

			Expect(err).ToNot(HaveOccurred())
			Expect(active).To(HaveLen(1))
			Expect(active[0].ID).To(Equal("current"))
		})
	})

	Describe("DeleteAnnouncement", func() {
		BeforeEach(func() {
			perms.granted[permissions.CapConfigureSystem] = true
			repo.announcements["a1"] = &systemconfig.Announcement{ID: "a1", Title: "stale"}
		})

		It("removes the notice and publishes a removed event", func() {
			err := service.DeleteAnnouncement(ctx, admin, "a1")

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.announcements).ToNot(HaveKey("a1"))
			Expect(pub.events).To(HaveLen(1))
			Expect(pub.events[0].Type).To(Equal(events.ChangeRemoved))
		})

		It("requires the configure-system capability", func() {
			perms.granted[permissions.CapConfigureSystem] = false

			err := service.DeleteAnnouncement(ctx, staff, "a1")

			Expect(err).To(HaveOccurred())
		})

		It("returns not found for a missing notice", func() {
			err := service.DeleteAnnouncement(ctx, admin, "missing")

			Expect(err).To(HaveOccurred())
		})
	})
})
