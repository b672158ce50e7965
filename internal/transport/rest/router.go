package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/workdeskhq/workdesk/internal/approval"
	"github.com/workdeskhq/workdesk/internal/audit"
	"github.com/workdeskhq/workdesk/internal/auth"
	"github.com/workdeskhq/workdesk/internal/kpi"
	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/permissions"
	"github.com/workdeskhq/workdesk/internal/personaltask"
	"github.com/workdeskhq/workdesk/internal/realtime"
	"github.com/workdeskhq/workdesk/internal/systemconfig"
	"github.com/workdeskhq/workdesk/internal/task"
	"github.com/workdeskhq/workdesk/internal/transport/middleware"
	"github.com/workdeskhq/workdesk/internal/transport/swagger"
	"github.com/workdeskhq/workdesk/internal/weeklyplan"
	"github.com/workdeskhq/workdesk/internal/workreport"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth         *auth.Handler
	Member       *member.Handler
	Task         *task.Handler
	PersonalTask *personaltask.Handler
	WeeklyPlan   *weeklyplan.Handler
	WorkReport   *workreport.Handler
	Approval     *approval.Handler
	KPI          *kpi.Handler
	Permissions  *permissions.Handler
	Audit        *audit.Handler
	SystemConfig *systemconfig.Handler
	Realtime     *realtime.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, authorizer *auth.Authorizer, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Everything below requires a signed-in member
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/ws", h.Realtime.ServeWS)

			pr.Route("/members", func(mr chi.Router) {
				mr.Get("/me", h.Member.GetCurrentMember)
				mr.Get("/", h.Member.ListMembers)
				mr.Get("/{id}", h.Member.GetMember)
				mr.Patch("/{id}", h.Member.UpdateMember)

				mr.Group(func(ar chi.Router) {
					ar.Use(authorizer.Require(permissions.CapManageTeam))
					ar.Post("/", h.Member.CreateMember)
					ar.Delete("/{id}", h.Member.DeactivateMember)
				})
			})

			pr.Route("/tasks", func(tr chi.Router) {
				tr.Get("/", h.Task.ListTasks)
				tr.Get("/{id}", h.Task.GetTask)
				tr.Patch("/{id}", h.Task.UpdateTask)
				tr.Patch("/{id}/status", h.Task.UpdateStatus)

				tr.Group(func(ar chi.Router) {
					ar.Use(authorizer.Require(permissions.CapAssignTasks))
					ar.Post("/", h.Task.CreateTask)
				})
				tr.Group(func(ar chi.Router) {
					ar.Use(authorizer.Require(permissions.CapDelete))
					ar.Delete("/{id}", h.Task.DeleteTask)
				})
			})

			pr.Route("/personal-tasks", func(ptr chi.Router) {
				ptr.Post("/", h.PersonalTask.CreatePersonalTask)
				ptr.Get("/", h.PersonalTask.ListForDay)
				ptr.Patch("/{id}", h.PersonalTask.UpdatePersonalTask)
				ptr.Delete("/{id}", h.PersonalTask.DeletePersonalTask)
			})

			pr.Route("/weekly-plans", func(wr chi.Router) {
				wr.Post("/", h.WeeklyPlan.SubmitPlan)
				wr.Get("/", h.WeeklyPlan.ListPlans)
				wr.Get("/week", h.WeeklyPlan.GetPlanForWeek)
				wr.Get("/pending", h.WeeklyPlan.ListPendingApprovals)
				wr.Get("/approvers", h.WeeklyPlan.ListApproverCandidates)
				wr.Get("/{id}", h.WeeklyPlan.GetPlan)
				wr.Patch("/{id}/approve", h.WeeklyPlan.ApprovePlan)
				wr.Patch("/{id}/reject", h.WeeklyPlan.RejectPlan)
				wr.Patch("/{id}/finalize", h.WeeklyPlan.FinalizePlan)
				wr.Patch("/{id}/evaluate", h.WeeklyPlan.EvaluatePlan)
			})

			pr.Route("/work-reports", func(rr chi.Router) {
				rr.Post("/", h.WorkReport.SubmitReport)
				rr.Get("/", h.WorkReport.ListReports)

				rr.Group(func(ar chi.Router) {
					ar.Use(authorizer.Require(permissions.CapViewReports))
					ar.Get("/pending", h.WorkReport.ListPendingReports)
					ar.Patch("/{id}/review", h.WorkReport.ReviewReport)
				})
			})

			pr.Route("/approval-requests", func(ar chi.Router) {
				ar.Post("/", h.Approval.CreateRequest)
				ar.Get("/", h.Approval.ListRequests)

				ar.Group(func(gr chi.Router) {
					gr.Use(authorizer.Require(permissions.CapApproveAssets))
					gr.Get("/pending", h.Approval.ListPendingRequests)
					gr.Patch("/{id}/decide", h.Approval.DecideRequest)
				})
			})

			pr.Route("/kpi", func(kr chi.Router) {
				kr.Get("/leaderboard", h.KPI.GetLeaderboard)
				kr.Get("/members/{id}", h.KPI.GetMemberScore)
			})

			pr.Route("/permissions", func(pmr chi.Router) {
				pmr.Get("/", h.Permissions.GetMatrix)

				pmr.Group(func(ar chi.Router) {
					ar.Use(authorizer.Require(permissions.CapConfigureSystem))
					ar.Put("/", h.Permissions.UpdateRole)
				})
			})

			pr.Route("/announcements", func(ar chi.Router) {
				ar.Get("/", h.SystemConfig.ListAnnouncements)

				ar.Group(func(gr chi.Router) {
					gr.Use(authorizer.Require(permissions.CapConfigureSystem))
					gr.Post("/", h.SystemConfig.CreateAnnouncement)
					gr.Delete("/{id}", h.SystemConfig.DeleteAnnouncement)
				})
			})

			pr.Group(func(hr chi.Router) {
				hr.Use(authorizer.Require(permissions.CapViewHistory))
				hr.Get("/history", h.Audit.GetHistory)
			})
		})
	})
}
