package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appworkflow "github.com/garyjia/newsroom-workflow/internal/application/workflow"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

// KindForbidden is reported when the actor's role may not perform a request
const KindForbidden = "Forbidden"

// ErrorBody is the machine-readable part of a failed response
type ErrorBody struct {
	Kind    string `json:"kind"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

var kindStatus = map[string]int{
	workflow.KindInvalidTransition:      http.StatusConflict,
	workflow.KindConcurrentModification: http.StatusConflict,
	workflow.KindMissingInput:           http.StatusBadRequest,
	workflow.KindInvalidInput:           http.StatusUnprocessableEntity,
	workflow.KindNotFound:               http.StatusNotFound,
	KindForbidden:                       http.StatusForbidden,
}

// toErrorBody classifies an error returned by the application layer
func toErrorBody(err error) (int, ErrorBody) {
	if appworkflow.IsForbidden(err) {
		return http.StatusForbidden, ErrorBody{Kind: KindForbidden, Reason: "role_not_permitted", Message: err.Error()}
	}

	kind := workflow.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		return http.StatusInternalServerError, ErrorBody{Kind: workflow.KindInternal, Message: "internal error"}
	}

	body := ErrorBody{Kind: kind, Reason: workflow.ReasonOf(err), Message: err.Error()}
	var wfErr *workflow.Error
	if errors.As(err, &wfErr) {
		body.Message = wfErr.Message()
	}
	return status, body
}

func (h *Handlers) fail(c *gin.Context, status int, body ErrorBody) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: &body})
}

// failErr writes the mapped error and logs anything unexpected
func (h *Handlers) failErr(c *gin.Context, msg string, err error) {
	status, body := toErrorBody(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, "path", c.Request.URL.Path, "error", err)
	}
	h.fail(c, status, body)
}

func (h *Handlers) badRequest(c *gin.Context, kind, reason, message string) {
	status := kindStatus[kind]
	if status == 0 {
		status = http.StatusBadRequest
	}
	h.fail(c, status, ErrorBody{Kind: kind, Reason: reason, Message: message})
}
