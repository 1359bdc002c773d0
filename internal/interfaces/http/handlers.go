package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/newsroom-workflow/internal/application/policy"
	"github.com/garyjia/newsroom-workflow/internal/application/service"
	appworkflow "github.com/garyjia/newsroom-workflow/internal/application/workflow"
	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
	"github.com/garyjia/newsroom-workflow/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	workflowService appworkflow.Service
	reportService   service.ReportService
	policy          *policy.Policy
	maxBulkItems    int
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	workflowService appworkflow.Service,
	reportService service.ReportService,
	rolePolicy *policy.Policy,
	maxBulkItems int,
	logger Logger,
) *Handlers {
	return &Handlers{
		workflowService: workflowService,
		reportService:   reportService,
		policy:          rolePolicy,
		maxBulkItems:    maxBulkItems,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// StateResponse describes one workflow status
type StateResponse struct {
	Status         workflow.State          `json:"status"`
	Label          string                  `json:"label"`
	Color          string                  `json:"color"`
	Classification workflow.Classification `json:"classification"`
	Actions        []workflow.Action       `json:"actions"`
}

// TransitionsResponse lists the actions legal from a status
type TransitionsResponse struct {
	Status  workflow.State    `json:"status"`
	Actions []workflow.Action `json:"actions"`
	// Allowed is the subset the caller's role may request; present only when a role is sent
	Allowed []workflow.Action `json:"allowed,omitempty"`
}

// ArticleResponse is an article plus presentation fields
type ArticleResponse struct {
	*entity.Article
	StatusLabel    string                  `json:"status_label"`
	Classification workflow.Classification `json:"classification"`
}

// CreateArticleRequest is the body of POST /api/articles
type CreateArticleRequest struct {
	Title        string `json:"title"`
	AuthorID     string `json:"authorId"`
	AssignedRole string `json:"assignedRole"`
	Status       string `json:"status"`
}

// TransitionInputs carries the optional action inputs
type TransitionInputs struct {
	Feedback string `json:"feedback"`
	// Reason is accepted as an alias of Feedback for REJECT and RETRACT
	Reason      string `json:"reason"`
	ScheduledAt string `json:"scheduledAt"`
	Flag        *bool  `json:"flag"`
	Stage       string `json:"stage"`
}

// TransitionRequestBody is the body of POST /api/articles/:id/transitions
type TransitionRequestBody struct {
	Action         string `json:"action"`
	ExpectedStatus string `json:"expectedStatus"`
	TransitionInputs
}

// BulkItemRequest identifies one article of a bulk request
type BulkItemRequest struct {
	ID             int64  `json:"id"`
	ExpectedStatus string `json:"expectedStatus"`
}

// BulkTransitionRequestBody is the body of POST /api/articles/bulk/transitions
type BulkTransitionRequestBody struct {
	Action string            `json:"action"`
	Items  []BulkItemRequest `json:"items"`
	TransitionInputs
}

// BulkItemResponse reports one bulk item
type BulkItemResponse struct {
	ID     int64                         `json:"id"`
	OK     bool                          `json:"ok"`
	Result *appworkflow.TransitionResult `json:"result,omitempty"`
	Error  *ErrorBody                    `json:"error,omitempty"`
}

// BulkResponse reports every item of a bulk request in request order
type BulkResponse struct {
	CorrelationID string             `json:"correlation_id"`
	Succeeded     int                `json:"succeeded"`
	Failed        int                `json:"failed"`
	Items         []BulkItemResponse `json:"items"`
}

// ListArticlesRequest represents query parameters for listing articles
type ListArticlesRequest struct {
	Status []string `form:"status"`
	Bucket string   `form:"bucket"`
	Author string   `form:"author"`
	Limit  int      `form:"limit"`
	Offset int      `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ListStates handles GET /api/workflow/states
func (h *Handlers) ListStates(c *gin.Context) {
	states := workflow.AllStates()
	out := make([]StateResponse, 0, len(states))
	for _, s := range states {
		out = append(out, StateResponse{
			Status:         s,
			Label:          StatusLabel(s),
			Color:          StatusColor(s),
			Classification: h.workflowService.Classify(s),
			Actions:        h.workflowService.ListTransitionsFor(s),
		})
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// ListTransitions handles GET /api/workflow/states/:state/transitions
func (h *Handlers) ListTransitions(c *gin.Context) {
	state, ok := h.stateParam(c)
	if !ok {
		return
	}

	resp := TransitionsResponse{
		Status:  state,
		Actions: h.workflowService.ListTransitionsFor(state),
	}
	if role := strings.TrimSpace(c.GetHeader(HeaderActorRole)); role != "" {
		resp.Allowed = h.policy.Filter(role, resp.Actions)
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

// ClassifyState handles GET /api/workflow/states/:state/classification
func (h *Handlers) ClassifyState(c *gin.Context) {
	state, ok := h.stateParam(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: h.workflowService.Classify(state)})
}

// CreateArticle handles POST /api/articles
func (h *Handlers) CreateArticle(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req CreateArticleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if strings.TrimSpace(req.Title) != "" {
		if err := utils.ValidateTitle(req.Title); err != nil {
			h.badRequest(c, workflow.KindInvalidInput, "title_too_long", err.Error())
			return
		}
	}
	if role := strings.TrimSpace(req.AssignedRole); role != "" {
		if err := utils.ValidateRole(role); err != nil {
			h.badRequest(c, workflow.KindInvalidInput, "invalid_role", err.Error())
			return
		}
	}

	var status workflow.State
	if raw := strings.TrimSpace(req.Status); raw != "" {
		parsed, err := workflow.ParseState(raw)
		if err != nil {
			h.failErr(c, "Invalid article status", err)
			return
		}
		status = parsed
	}

	authorID := req.AuthorID
	if strings.TrimSpace(authorID) == "" {
		authorID = actor.ID
	}

	article, err := h.workflowService.Create(c.Request.Context(), appworkflow.CreateRequest{
		Title:        req.Title,
		AuthorID:     authorID,
		AssignedRole: req.AssignedRole,
		Status:       status,
		Actor:        actor,
	})
	if err != nil {
		h.failErr(c, "Failed to create article", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: toArticleResponse(article)})
}

// GetArticle handles GET /api/articles/:id
func (h *Handlers) GetArticle(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	article, err := h.workflowService.Get(c.Request.Context(), id)
	if err != nil {
		h.failErr(c, "Failed to get article", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toArticleResponse(article)})
}

// ListArticles handles GET /api/articles
func (h *Handlers) ListArticles(c *gin.Context) {
	var req ListArticlesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		h.badRequest(c, workflow.KindInvalidInput, "invalid_query", "invalid query parameters")
		return
	}

	// Set defaults
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	statuses, empty, err := resolveStatuses(req.Status, req.Bucket)
	if err != nil {
		h.failErr(c, "Invalid status filter", err)
		return
	}

	articles := []*entity.Article{}
	if !empty {
		articles, err = h.workflowService.List(c.Request.Context(), entity.ArticleFilter{
			Statuses: statuses,
			AuthorID: strings.TrimSpace(req.Author),
			Limit:    req.Limit,
			Offset:   req.Offset,
		})
		if err != nil {
			h.failErr(c, "Failed to list articles", err)
			return
		}
	}

	out := make([]ArticleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, toArticleResponse(a))
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// GetHistory handles GET /api/articles/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	records, err := h.workflowService.History(c.Request.Context(), id)
	if err != nil {
		h.failErr(c, "Failed to get history", err)
		return
	}
	if records == nil {
		records = []*entity.TransitionRecord{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// ApplyTransition handles POST /api/articles/:id/transitions
func (h *Handlers) ApplyTransition(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req TransitionRequestBody
	if !h.bindJSON(c, &req) {
		return
	}
	inputs, ok := h.parseInputs(c, req.TransitionInputs)
	if !ok {
		return
	}

	result, err := h.workflowService.ApplyTransition(c.Request.Context(), appworkflow.TransitionRequest{
		ArticleID:      id,
		Action:         workflow.Action(strings.TrimSpace(req.Action)),
		Actor:          actor,
		Inputs:         inputs,
		ExpectedStatus: workflow.State(strings.TrimSpace(req.ExpectedStatus)),
	})
	if err != nil {
		h.failErr(c, "Failed to apply transition", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ApplyBulk handles POST /api/articles/bulk/transitions.
// Partial failure still answers 200; every item carries its own outcome.
func (h *Handlers) ApplyBulk(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req BulkTransitionRequestBody
	if !h.bindJSON(c, &req) {
		return
	}
	if len(req.Items) == 0 {
		h.badRequest(c, workflow.KindMissingInput, "items_required", "at least one item is required")
		return
	}
	if len(req.Items) > h.maxBulkItems {
		h.badRequest(c, workflow.KindInvalidInput, "too_many_items",
			fmt.Sprintf("%d items requested, limit is %d", len(req.Items), h.maxBulkItems))
		return
	}
	inputs, ok := h.parseInputs(c, req.TransitionInputs)
	if !ok {
		return
	}

	items := make([]appworkflow.BulkItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, appworkflow.BulkItem{
			ArticleID:      it.ID,
			ExpectedStatus: workflow.State(strings.TrimSpace(it.ExpectedStatus)),
		})
	}

	result := h.workflowService.ApplyBulk(c.Request.Context(), appworkflow.BulkRequest{
		Action: workflow.Action(strings.TrimSpace(req.Action)),
		Actor:  actor,
		Inputs: inputs,
		Items:  items,
	})

	resp := BulkResponse{
		CorrelationID: result.CorrelationID,
		Succeeded:     result.Succeeded,
		Failed:        result.Failed,
		Items:         make([]BulkItemResponse, 0, len(result.Items)),
	}
	for _, it := range result.Items {
		item := BulkItemResponse{ID: it.ArticleID, OK: it.OK(), Result: it.Result}
		if !it.OK() {
			status, body := toErrorBody(it.Err)
			if status == http.StatusInternalServerError {
				h.logger.Error("Bulk item failed", "article_id", it.ArticleID, "error", it.Err)
			}
			item.Error = &body
		}
		resp.Items = append(resp.Items, item)
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

// StatusReport handles GET /api/reports/status
func (h *Handlers) StatusReport(c *gin.Context) {
	report, err := h.reportService.StatusReport(c.Request.Context())
	if err != nil {
		h.failErr(c, "Failed to build status report", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// ExportStatusReport handles GET /api/reports/status.xlsx
func (h *Handlers) ExportStatusReport(c *gin.Context) {
	// Render fully before writing so a failure can still answer with JSON
	var buf bytes.Buffer
	if err := h.reportService.Export(c.Request.Context(), &buf); err != nil {
		h.failErr(c, "Failed to export status report", err)
		return
	}

	filename := fmt.Sprintf("status-report-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, h.reportService.ContentType(), buf.Bytes())
}

func (h *Handlers) idParam(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(c, workflow.KindInvalidInput, "invalid_id", fmt.Sprintf("invalid article ID %q", idStr))
		return 0, false
	}
	return id, true
}

func (h *Handlers) stateParam(c *gin.Context) (workflow.State, bool) {
	state, err := workflow.ParseState(c.Param("state"))
	if err != nil {
		h.failErr(c, "Invalid status", err)
		return "", false
	}
	return state, true
}

func (h *Handlers) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.fail(c, http.StatusBadRequest, ErrorBody{
			Kind:    workflow.KindInvalidInput,
			Reason:  "malformed_body",
			Message: "request body is not valid JSON: " + err.Error(),
		})
		return false
	}
	return true
}

func (h *Handlers) parseInputs(c *gin.Context, in TransitionInputs) (workflow.Inputs, bool) {
	scheduledAt, err := utils.ParseTimestamp(in.ScheduledAt)
	if err != nil {
		h.badRequest(c, workflow.KindInvalidInput, "invalid_scheduled_at", err.Error())
		return workflow.Inputs{}, false
	}

	feedback := in.Feedback
	if strings.TrimSpace(feedback) == "" {
		feedback = in.Reason
	}

	return workflow.Inputs{
		Feedback:    feedback,
		ScheduledAt: scheduledAt,
		Flag:        in.Flag,
		Stage:       workflow.State(strings.TrimSpace(in.Stage)),
	}, true
}

// resolveStatuses combines explicit statuses with a bucket. empty reports a
// filter that can match nothing, so the caller can skip the query.
func resolveStatuses(raw []string, bucket string) (statuses []workflow.State, empty bool, err error) {
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			s, err := workflow.ParseState(part)
			if err != nil {
				return nil, false, err
			}
			statuses = append(statuses, s)
		}
	}

	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return statuses, false, nil
	}

	b := entity.Bucket(bucket)
	if !b.IsValid() {
		return nil, false, workflow.NewError(workflow.ErrInvalidInput, "unknown_bucket",
			fmt.Sprintf("unknown bucket %q", bucket))
	}
	inBucket := b.States()
	if len(statuses) == 0 {
		return inBucket, false, nil
	}

	member := make(map[workflow.State]bool, len(inBucket))
	for _, s := range inBucket {
		member[s] = true
	}
	var both []workflow.State
	for _, s := range statuses {
		if member[s] {
			both = append(both, s)
		}
	}
	return both, len(both) == 0, nil
}

// toArticleResponse converts domain entity to API response
func toArticleResponse(article *entity.Article) ArticleResponse {
	return ArticleResponse{
		Article:        article,
		StatusLabel:    StatusLabel(article.Status),
		Classification: workflow.Classify(article.Status),
	}
}
