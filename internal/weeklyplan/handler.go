package weeklyplan

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/transport"
	"github.com/workdeskhq/workdesk/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(service *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) SubmitPlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto SubmitPlanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("SubmitPlan: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := h.Service.Submit(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Error("SubmitPlan: service error", "error", err, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, plan)
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	plan, err := h.Service.GetPlan(actor, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, plan)
}

// GetPlanForWeek resolves ?user_id=&week_of= to the week's plan. The
// user defaults to the caller.
func (h *Handler) GetPlanForWeek(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = actor.ID
	}
	weekOf := r.URL.Query().Get("week_of")
	if weekOf == "" {
		h.WriteError(w, http.StatusBadRequest, "week_of query parameter is required")
		return
	}

	plan, err := h.Service.GetPlanForWeek(actor, userID, weekOf)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, plan)
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = actor.ID
	}

	plans, err := h.Service.GetPlansForUser(actor, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"plans": plans,
	})
}

func (h *Handler) ListPendingApprovals(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	plans, err := h.Service.GetPendingForApprover(actor)
	if err != nil {
		h.Logger.Error("ListPendingApprovals: service error", "error", err, "actor_id", actor.ID)
		h.WriteError(w, http.StatusInternalServerError, "failed to list pending plans")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"plans": plans,
	})
}

func (h *Handler) ListApproverCandidates(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	candidates, err := h.Service.Candidates(actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"candidates": candidates,
	})
}

func (h *Handler) ApprovePlan(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Approve)
}

func (h *Handler) RejectPlan(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, decision func(ctx context.Context, actor *member.Member, planID string, dto DecisionDTO) (*WeeklyPlan, error)) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	planID := chi.URLParam(r, "id")

	var dto DecisionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("decide: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := decision(r.Context(), actor, planID, dto)
	if err != nil {
		h.Logger.Error("decide: service error", "error", err, "plan_id", planID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, plan)
}

func (h *Handler) FinalizePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	planID := chi.URLParam(r, "id")

	var dto FinalizePlanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("FinalizePlan: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := h.Service.Finalize(r.Context(), actor, planID, dto)
	if err != nil {
		h.Logger.Error("FinalizePlan: service error", "error", err, "plan_id", planID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, plan)
}

func (h *Handler) EvaluatePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	planID := chi.URLParam(r, "id")

	var dto ManagerEvalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("EvaluatePlan: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := h.Service.SetManagerEval(r.Context(), actor, planID, dto)
	if err != nil {
		h.Logger.Error("EvaluatePlan: service error", "error", err, "plan_id", planID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, plan)
}
