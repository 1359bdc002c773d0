package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/newsroom-workflow/internal/application/policy"
	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
	"github.com/garyjia/newsroom-workflow/pkg/utils"
)

// Request headers identifying the caller
const (
	HeaderActorRole = "X-Actor-Role"
	HeaderActorID   = "X-Actor-ID"
)

// requireActor reads the caller from the request headers. It writes the error
// response and returns false when the role is missing, malformed, unknown to
// the policy, or reserved for background workers.
func (h *Handlers) requireActor(c *gin.Context) (entity.Actor, bool) {
	role := strings.ToUpper(strings.TrimSpace(c.GetHeader(HeaderActorRole)))
	if role == "" {
		h.badRequest(c, workflow.KindMissingInput, "actor_role_required", HeaderActorRole+" header is required")
		return entity.Actor{}, false
	}
	if err := utils.ValidateRole(role); err != nil {
		h.badRequest(c, workflow.KindInvalidInput, "invalid_role", err.Error())
		return entity.Actor{}, false
	}
	if role == policy.RoleSystem {
		h.badRequest(c, KindForbidden, "system_role_reserved", "the SYSTEM role cannot be used over HTTP")
		return entity.Actor{}, false
	}
	if !h.policy.IsKnownRole(role) {
		h.badRequest(c, KindForbidden, "unknown_role", "role "+role+" is not configured")
		return entity.Actor{}, false
	}

	return entity.Actor{
		ID:   strings.TrimSpace(c.GetHeader(HeaderActorID)),
		Role: role,
	}, true
}
