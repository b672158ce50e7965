package auth

import (
	"log/slog"
	"net/http"

	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/permissions"
)

// CapabilityChecker resolves the effective permission matrix.
type CapabilityChecker interface {
	HasCapability(role permissions.Role, cap permissions.Capability) bool
}

// Authorizer gates routes on role capabilities.
type Authorizer struct {
	checker CapabilityChecker
	logger  *slog.Logger
}

func NewAuthorizer(checker CapabilityChecker, logger *slog.Logger) *Authorizer {
	return &Authorizer{
		checker: checker,
		logger:  logger,
	}
}

// Require rejects the request unless the authenticated member's role holds
// the capability.
func (a *Authorizer) Require(cap permissions.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m, ok := member.FromContext(r.Context())
			if !ok || m == nil {
				a.logger.Warn("authorization check failed: member not found in context")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !a.checker.HasCapability(m.Role, cap) {
				a.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"member_id", m.ID,
					"role", m.Role,
					"required_capability", cap)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireLevel rejects the request unless the member's seniority rank is at
// least the given level.
func (a *Authorizer) RequireLevel(level int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m, ok := member.FromContext(r.Context())
			if !ok || m == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if m.Level() < level {
				a.logger.WarnContext(r.Context(), "access denied: seniority level too low",
					"member_id", m.ID,
					"role", m.Role,
					"required_level", level)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
