package permissions

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/transport"
	"github.com/workdeskhq/workdesk/pkg/logger"
)

type ServiceAPI interface {
	Matrix() Matrix
	UpdateRole(ctx context.Context, actorID string, dto UpdateRoleConfigDTO) (*RoleConfig, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// GetMatrix returns the merged role/capability table with role metadata.
func (h *Handler) GetMatrix(w http.ResponseWriter, r *http.Request) {
	matrix := h.Service.Matrix()

	roles := make([]RoleInfo, 0, len(AllRoles))
	for _, role := range AllRoles {
		roles = append(roles, RoleInfo{
			Role:  role,
			Label: RoleLabel(role),
			Level: RoleLevel(role),
		})
	}

	h.WriteJSON(w, http.StatusOK, MatrixResponse{
		Roles:  roles,
		Matrix: matrix,
	})
}

// UpdateRole saves an admin override for a single role.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.Logger.Error("UpdateRole: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdateRoleConfigDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateRole: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	config, err := h.Service.UpdateRole(r.Context(), userID, dto)
	if err != nil {
		h.Logger.Error("UpdateRole: service error", "error", err, "role", dto.Role)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, config)
}
