package auth

import (
	"github.com/spec-kit/intervention-service/internal/domain"
	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

// Operation names a guarded entry point.
type Operation string

const (
	OpViewOwnDashboard   Operation = "view-own-dashboard"
	OpScheduleOwn        Operation = "schedule-own"
	OpScheduleAny        Operation = "schedule-any"
	OpToggleOwnSession   Operation = "toggle-own-session"
	OpRequestDeleteOwn   Operation = "request-delete-own"
	OpResolveDelete      Operation = "resolve-delete"
	OpManageIntervenants Operation = "manage-intervenants"
	OpManageClients      Operation = "manage-clients"
	OpViewAnyDashboard   Operation = "view-any-dashboard"
)

var policy = map[domain.Role]map[Operation]struct{}{
	domain.RoleIntervenant: operationSet(
		OpViewOwnDashboard,
		OpScheduleOwn,
		OpToggleOwnSession,
		OpRequestDeleteOwn,
	),
	domain.RoleClient: operationSet(
		OpViewOwnDashboard,
	),
	domain.RoleAdmin: operationSet(
		OpScheduleAny,
		OpResolveDelete,
		OpManageIntervenants,
		OpManageClients,
		OpViewAnyDashboard,
	),
}

func operationSet(ops ...Operation) map[Operation]struct{} {
	set := make(map[Operation]struct{}, len(ops))
	for _, op := range ops {
		set[op] = struct{}{}
	}
	return set
}

// Allow reports whether role may perform op. Unknown roles and operations
// are denied.
func Allow(role domain.Role, op Operation) bool {
	_, ok := policy[role][op]
	return ok
}

// Authorize returns a forbidden error when actor may not perform op.
func Authorize(actor domain.Actor, op Operation) error {
	if actor.ID == "" || !Allow(actor.Role, op) {
		return apperrors.NewForbidden(string(op) + " not allowed")
	}
	return nil
}

// DefaultView is the landing path for a role. Denied requests are sent here.
func DefaultView(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "/dashboard/admin"
	case domain.RoleClient:
		return "/dashboard/client"
	case domain.RoleIntervenant:
		return "/dashboard/intervenant"
	default:
		return "/auth/login"
	}
}
