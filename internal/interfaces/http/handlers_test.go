package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/newsroom-workflow/internal/application/policy"
	appworkflow "github.com/garyjia/newsroom-workflow/internal/application/workflow"
	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// fakeService implements appworkflow.Service with overridable behavior
type fakeService struct {
	createFunc     func(ctx context.Context, req appworkflow.CreateRequest) (*entity.Article, error)
	getFunc        func(ctx context.Context, id int64) (*entity.Article, error)
	listFunc       func(ctx context.Context, filter entity.ArticleFilter) ([]*entity.Article, error)
	historyFunc    func(ctx context.Context, id int64) ([]*entity.TransitionRecord, error)
	transitionFunc func(ctx context.Context, req appworkflow.TransitionRequest) (*appworkflow.TransitionResult, error)
	bulkFunc       func(ctx context.Context, req appworkflow.BulkRequest) *appworkflow.BulkResult
}

func (f *fakeService) Create(ctx context.Context, req appworkflow.CreateRequest) (*entity.Article, error) {
	return f.createFunc(ctx, req)
}

func (f *fakeService) Get(ctx context.Context, id int64) (*entity.Article, error) {
	return f.getFunc(ctx, id)
}

func (f *fakeService) List(ctx context.Context, filter entity.ArticleFilter) ([]*entity.Article, error) {
	return f.listFunc(ctx, filter)
}

func (f *fakeService) History(ctx context.Context, id int64) ([]*entity.TransitionRecord, error) {
	return f.historyFunc(ctx, id)
}

func (f *fakeService) ApplyTransition(ctx context.Context, req appworkflow.TransitionRequest) (*appworkflow.TransitionResult, error) {
	return f.transitionFunc(ctx, req)
}

func (f *fakeService) ApplyBulk(ctx context.Context, req appworkflow.BulkRequest) *appworkflow.BulkResult {
	return f.bulkFunc(ctx, req)
}

func (f *fakeService) ListTransitionsFor(state workflow.State) []workflow.Action {
	return workflow.NewEngine().ListTransitionsFor(state)
}

func (f *fakeService) Classify(state workflow.State) workflow.Classification {
	return workflow.Classify(state)
}

type fakeReports struct {
	report *entity.StatusReport
	err    error
}

func (f *fakeReports) StatusReport(ctx context.Context) (*entity.StatusReport, error) {
	return f.report, f.err
}

func (f *fakeReports) Export(ctx context.Context, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := w.Write([]byte("PK-xlsx"))
	return err
}

func (f *fakeReports) ContentType() string { return "application/test" }

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorBody      `json:"error"`
}

func newTestRouter(svc *fakeService, reports *fakeReports) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := DefaultServerConfig()
	cfg.MaxBulkItems = 3
	return NewServer(cfg, svc, reports, policy.Default(), nil, nopLogger{}).Router()
}

func do(t *testing.T, router *gin.Engine, method, path, role, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set(HeaderActorRole, role)
		req.Header.Set(HeaderActorID, "u-7")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&fakeService{}, &fakeReports{})

	w, resp := do(t, router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"healthy"`)
}

func TestListStates(t *testing.T) {
	router := newTestRouter(&fakeService{}, &fakeReports{})

	w, resp := do(t, router, http.MethodGet, "/api/workflow/states", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var states []StateResponse
	require.NoError(t, json.Unmarshal(resp.Data, &states))
	require.Len(t, states, len(workflow.AllStates()))
	assert.Equal(t, workflow.StateDraft, states[0].Status)
	assert.Equal(t, "Draft", states[0].Label)

	for _, s := range states {
		if s.Status == workflow.StateReturnedToWriter {
			assert.Equal(t, "Returned to Writer", s.Label)
			assert.True(t, s.Classification.NeedsAttention)
			assert.Contains(t, s.Actions, workflow.ActionStartWriting)
		}
	}
}

func TestListTransitions(t *testing.T) {
	router := newTestRouter(&fakeService{}, &fakeReports{})

	t.Run("without role", func(t *testing.T) {
		w, resp := do(t, router, http.MethodGet, "/api/workflow/states/PUBLISHED/transitions", "", "")
		require.Equal(t, http.StatusOK, w.Code)

		var tr TransitionsResponse
		require.NoError(t, json.Unmarshal(resp.Data, &tr))
		assert.Contains(t, tr.Actions, workflow.ActionUnpublish)
		assert.Nil(t, tr.Allowed)
	})

	t.Run("filtered by role", func(t *testing.T) {
		w, resp := do(t, router, http.MethodGet, "/api/workflow/states/PUBLISHED/transitions", "EDITOR", "")
		require.Equal(t, http.StatusOK, w.Code)

		var tr TransitionsResponse
		require.NoError(t, json.Unmarshal(resp.Data, &tr))
		assert.NotContains(t, tr.Allowed, workflow.ActionUnpublish)
	})

	t.Run("unknown state", func(t *testing.T) {
		w, resp := do(t, router, http.MethodGet, "/api/workflow/states/LIVE/transitions", "", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "unknown_status", resp.Error.Reason)
	})
}

func TestClassifyState(t *testing.T) {
	router := newTestRouter(&fakeService{}, &fakeReports{})

	w, resp := do(t, router, http.MethodGet, "/api/workflow/states/APPROVED/classification", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var c workflow.Classification
	require.NoError(t, json.Unmarshal(resp.Data, &c))
	assert.Equal(t, workflow.Classify(workflow.StateApproved), c)
}

func TestCreateArticle(t *testing.T) {
	var got appworkflow.CreateRequest
	svc := &fakeService{
		createFunc: func(ctx context.Context, req appworkflow.CreateRequest) (*entity.Article, error) {
			got = req
			return &entity.Article{ID: 11, Title: req.Title, Status: workflow.StateDraft, Version: 1}, nil
		},
	}
	router := newTestRouter(svc, &fakeReports{})

	w, resp := do(t, router, http.MethodPost, "/api/articles", "author", `{"title":"Harbor fire","assignedRole":"EDITOR"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, "Harbor fire", got.Title)
	assert.Equal(t, "u-7", got.AuthorID, "author defaults to the actor")
	assert.Equal(t, entity.Actor{ID: "u-7", Role: "AUTHOR"}, got.Actor)
	assert.Contains(t, string(resp.Data), `"status_label":"Draft"`)
}

func TestCreateArticle_Rejections(t *testing.T) {
	svc := &fakeService{
		createFunc: func(ctx context.Context, req appworkflow.CreateRequest) (*entity.Article, error) {
			return nil, workflow.NewError(workflow.ErrMissingInput, "title_required", "title is required")
		},
	}
	router := newTestRouter(svc, &fakeReports{})

	tests := []struct {
		name       string
		role       string
		body       string
		wantCode   int
		wantReason string
	}{
		{"no role", "", `{"title":"x"}`, http.StatusBadRequest, "actor_role_required"},
		{"unknown role", "INTERN", `{"title":"x"}`, http.StatusForbidden, "unknown_role"},
		{"system role", "SYSTEM", `{"title":"x"}`, http.StatusForbidden, "system_role_reserved"},
		{"malformed body", "AUTHOR", `{"title":`, http.StatusBadRequest, "malformed_body"},
		{"long title", "AUTHOR", fmt.Sprintf(`{"title":%q}`, strings.Repeat("a", 301)), http.StatusUnprocessableEntity, "title_too_long"},
		{"unknown status", "AUTHOR", `{"title":"x","status":"LIVE"}`, http.StatusUnprocessableEntity, "unknown_status"},
		{"blank title", "AUTHOR", `{"title":"  "}`, http.StatusBadRequest, "title_required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := do(t, router, http.MethodPost, "/api/articles", tt.role, tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantReason, resp.Error.Reason)
		})
	}
}

func TestGetArticle(t *testing.T) {
	svc := &fakeService{
		getFunc: func(ctx context.Context, id int64) (*entity.Article, error) {
			if id == 4 {
				return &entity.Article{ID: 4, Status: workflow.StateUnderReview}, nil
			}
			return nil, workflow.NotFound(id)
		},
	}
	router := newTestRouter(svc, &fakeReports{})

	w, resp := do(t, router, http.MethodGet, "/api/articles/4", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), `"reviewable":true`)

	w, resp = do(t, router, http.MethodGet, "/api/articles/5", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, workflow.KindNotFound, resp.Error.Kind)

	w, _ = do(t, router, http.MethodGet, "/api/articles/abc", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestListArticles_Filters(t *testing.T) {
	var got entity.ArticleFilter
	calls := 0
	svc := &fakeService{
		listFunc: func(ctx context.Context, filter entity.ArticleFilter) ([]*entity.Article, error) {
			calls++
			got = filter
			return []*entity.Article{{ID: 1, Status: workflow.StateOnHold}}, nil
		},
	}
	router := newTestRouter(svc, &fakeReports{})

	t.Run("bucket", func(t *testing.T) {
		w, _ := do(t, router, http.MethodGet, "/api/articles?bucket=needs_attention&limit=500", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.ElementsMatch(t, entity.BucketNeedsAttention.States(), got.Statuses)
		assert.Equal(t, 20, got.Limit)
	})

	t.Run("statuses intersected with bucket", func(t *testing.T) {
		w, _ := do(t, router, http.MethodGet, "/api/articles?status=ON_HOLD,APPROVED&bucket=needs_attention&offset=5", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []workflow.State{workflow.StateOnHold}, got.Statuses)
		assert.Equal(t, 5, got.Offset)
	})

	t.Run("empty intersection skips the query", func(t *testing.T) {
		before := calls
		w, resp := do(t, router, http.MethodGet, "/api/articles?status=PUBLISHED&bucket=publishable", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, before, calls)
		assert.JSONEq(t, `[]`, string(resp.Data))
	})

	t.Run("unknown bucket", func(t *testing.T) {
		w, resp := do(t, router, http.MethodGet, "/api/articles?bucket=stale", "", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "unknown_bucket", resp.Error.Reason)
	})
}

func TestApplyTransition(t *testing.T) {
	var got appworkflow.TransitionRequest
	svc := &fakeService{
		transitionFunc: func(ctx context.Context, req appworkflow.TransitionRequest) (*appworkflow.TransitionResult, error) {
			got = req
			return &appworkflow.TransitionResult{
				Article: &entity.Article{ID: req.ArticleID, Status: workflow.StateScheduled},
				From:    workflow.StateApproved,
				To:      workflow.StateScheduled,
				Action:  req.Action,
			}, nil
		},
	}
	router := newTestRouter(svc, &fakeReports{})

	body := `{"action":"SCHEDULE","expectedStatus":"APPROVED","scheduledAt":"2025-04-01T08:00:00Z"}`
	w, resp := do(t, router, http.MethodPost, "/api/articles/9/transitions", "publisher", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, resp.Success)

	assert.Equal(t, int64(9), got.ArticleID)
	assert.Equal(t, workflow.ActionSchedule, got.Action)
	assert.Equal(t, workflow.StateApproved, got.ExpectedStatus)
	assert.Equal(t, "PUBLISHER", got.Actor.Role)
	require.NotNil(t, got.Inputs.ScheduledAt)
	assert.True(t, got.Inputs.ScheduledAt.Equal(time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)))
}

func TestApplyTransition_ReasonFallsBackToFeedback(t *testing.T) {
	var got appworkflow.TransitionRequest
	svc := &fakeService{
		transitionFunc: func(ctx context.Context, req appworkflow.TransitionRequest) (*appworkflow.TransitionResult, error) {
			got = req
			return &appworkflow.TransitionResult{}, nil
		},
	}
	router := newTestRouter(svc, &fakeReports{})

	w, _ := do(t, router, http.MethodPost, "/api/articles/9/transitions", "ADMIN",
		`{"action":"REJECT","expectedStatus":"UNDER_REVIEW","reason":"off topic"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "off topic", got.Inputs.Feedback)
}

func TestApplyTransition_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"illegal", workflow.NewError(workflow.ErrInvalidTransition, "action_not_permitted", "no"), http.StatusConflict, workflow.KindInvalidTransition},
		{"stale", workflow.Conflict(9, workflow.StateApproved, workflow.StateScheduled), http.StatusConflict, workflow.KindConcurrentModification},
		{"missing", workflow.NewError(workflow.ErrMissingInput, "feedback_required", "feedback is required"), http.StatusBadRequest, workflow.KindMissingInput},
		{"invalid", workflow.NewError(workflow.ErrInvalidInput, "scheduled_at_not_future", "too early"), http.StatusUnprocessableEntity, workflow.KindInvalidInput},
		{"not found", workflow.NotFound(9), http.StatusNotFound, workflow.KindNotFound},
		{"forbidden", fmt.Errorf("%w: EDITOR may not PUBLISH", policy.ErrForbidden), http.StatusForbidden, KindForbidden},
		{"internal", errors.New("database is locked"), http.StatusInternalServerError, workflow.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{
				transitionFunc: func(ctx context.Context, req appworkflow.TransitionRequest) (*appworkflow.TransitionResult, error) {
					return nil, tt.err
				},
			}
			router := newTestRouter(svc, &fakeReports{})

			w, resp := do(t, router, http.MethodPost, "/api/articles/9/transitions", "EDITOR",
				`{"action":"APPROVE","expectedStatus":"UNDER_REVIEW"}`)
			assert.Equal(t, tt.wantCode, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantKind, resp.Error.Kind)
			assert.NotContains(t, resp.Error.Message, "database is locked")
		})
	}
}

func TestApplyTransition_BadScheduledAt(t *testing.T) {
	router := newTestRouter(&fakeService{}, &fakeReports{})

	w, resp := do(t, router, http.MethodPost, "/api/articles/9/transitions", "PUBLISHER",
		`{"action":"SCHEDULE","expectedStatus":"APPROVED","scheduledAt":"tomorrow"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_scheduled_at", resp.Error.Reason)
}

func TestApplyBulk(t *testing.T) {
	var got appworkflow.BulkRequest
	svc := &fakeService{
		bulkFunc: func(ctx context.Context, req appworkflow.BulkRequest) *appworkflow.BulkResult {
			got = req
			return &appworkflow.BulkResult{
				CorrelationID: "c-1",
				Succeeded:     1,
				Failed:        1,
				Items: []appworkflow.BulkItemResult{
					{ArticleID: 1, Result: &appworkflow.TransitionResult{To: workflow.StatePublished}},
					{ArticleID: 2, Err: workflow.Conflict(2, workflow.StateApproved, workflow.StateDraft)},
				},
			}
		},
	}
	router := newTestRouter(svc, &fakeReports{})

	body := `{"action":"PUBLISH","items":[{"id":1,"expectedStatus":"APPROVED"},{"id":2,"expectedStatus":"APPROVED"}]}`
	w, resp := do(t, router, http.MethodPost, "/api/articles/bulk/transitions", "PUBLISHER", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, got.Items, 2)
	assert.Equal(t, appworkflow.BulkItem{ArticleID: 2, ExpectedStatus: workflow.StateApproved}, got.Items[1])

	var bulk BulkResponse
	require.NoError(t, json.Unmarshal(resp.Data, &bulk))
	assert.Equal(t, "c-1", bulk.CorrelationID)
	require.Len(t, bulk.Items, 2)
	assert.True(t, bulk.Items[0].OK)
	assert.False(t, bulk.Items[1].OK)
	require.NotNil(t, bulk.Items[1].Error)
	assert.Equal(t, workflow.KindConcurrentModification, bulk.Items[1].Error.Kind)
	assert.Equal(t, "status_mismatch", bulk.Items[1].Error.Reason)
}

func TestApplyBulk_Limits(t *testing.T) {
	router := newTestRouter(&fakeService{}, &fakeReports{})

	w, resp := do(t, router, http.MethodPost, "/api/articles/bulk/transitions", "ADMIN", `{"action":"ARCHIVE","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "items_required", resp.Error.Reason)

	w, resp = do(t, router, http.MethodPost, "/api/articles/bulk/transitions", "ADMIN",
		`{"action":"ARCHIVE","items":[{"id":1},{"id":2},{"id":3},{"id":4}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "too_many_items", resp.Error.Reason)
}

func TestReports(t *testing.T) {
	reports := &fakeReports{report: &entity.StatusReport{Total: 3}}
	router := newTestRouter(&fakeService{}, reports)

	w, resp := do(t, router, http.MethodGet, "/api/reports/status", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), `"total":3`)

	w, _ = do(t, router, http.MethodGet, "/api/reports/status.xlsx", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/test", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "status-report-")
	assert.Equal(t, "PK-xlsx", w.Body.String())

	reports.err = errors.New("excel exploded")
	w, resp = do(t, router, http.MethodGet, "/api/reports/status.xlsx", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, resp.Success)
}

func TestLabels(t *testing.T) {
	for _, s := range workflow.AllStates() {
		assert.NotEqual(t, s.String(), StatusLabel(s), "state %s has no label", s)
	}
	assert.Equal(t, "BOGUS", StatusLabel(workflow.State("BOGUS")))
	assert.Equal(t, defaultStatusColor, StatusColor(workflow.StateExpired))
}
