package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/graphplan"
	"github.com/rlch/graphplan/catalog"
	"github.com/rlch/graphplan/server"
	"github.com/rlch/graphplan/telemetry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPlanner struct {
	plan *graphplan.Plan
	err  error
}

func (p stubPlanner) GeneratePlan(_ context.Context, _ string) (*graphplan.Plan, error) {
	return p.plan, p.err
}

type stubExecutor struct {
	records []graphplan.Record
	err     error
	got     *graphplan.Plan
}

func (e *stubExecutor) Execute(_ context.Context, plan *graphplan.Plan) ([]graphplan.Record, error) {
	e.got = plan

	return e.records, e.err
}

var platePlan = &graphplan.Plan{Steps: []graphplan.Step{{
	Step:        1,
	IntentID:    "intent_1",
	Description: "Search Vehicle by plate",
	Value:       "HHH8I88",
	Output:      graphplan.DefaultStepOutput,
}}}

func testCatalog() *catalog.Catalog {
	return catalog.New("5.2-metadata", "2026-01-02T03:04:05Z", []*catalog.Intent{
		{ID: "intent_1", Category: "Vehicle", Description: "Search Vehicle by plate", Steps: 1},
		{ID: "intent_2", Category: "Person", Description: "Search Person by cpf", Steps: 1},
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

func TestPlan_OK(t *testing.T) {
	t.Parallel()

	srv := server.New(stubPlanner{plan: platePlan}, &stubExecutor{}, testCatalog())

	w := do(t, srv.Handler(), http.MethodPost, "/v1/plan", `{"query":"placa HHH8I88"}`)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := graphplan.ParsePlan(w.Body.Bytes())
	require.NoError(t, err)

	if diff := cmp.Diff(platePlan, got); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	assert.NotEmpty(t, w.Header().Get(server.RequestIDHeader))
}

func TestPlan_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "missing query",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "malformed body",
			body:       `{"query":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name: "low confidence",
			body: `{"query":"bom dia"}`,
			err: graphplan.NewError("planner.GeneratePlan", graphplan.ErrLowConfidence,
				"I did not understand the question (score too low).", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "LOW_CONFIDENCE",
			wantMsg:    "I did not understand the question (score too low).",
		},
		{
			name:       "no entity",
			body:       `{"query":"quem é?"}`,
			err:        graphplan.NewError("planner.GeneratePlan", graphplan.ErrNoEntity, "no entity", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "NO_ENTITY",
			wantMsg:    "no entity",
		},
		{
			name:       "empty catalog",
			body:       `{"query":"placa ABC1234"}`,
			err:        graphplan.ErrNoIntents,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "NO_INTENTS",
			wantMsg:    graphplan.ErrNoIntents.Error(),
		},
		{
			name:       "unexpected",
			body:       `{"query":"placa ABC1234"}`,
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
			wantMsg:    "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := server.New(stubPlanner{err: tt.err}, &stubExecutor{}, testCatalog())

			req := httptest.NewRequest(http.MethodPost, "/v1/plan", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(server.RequestIDHeader, "req-42")

			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp server.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, "req-42", resp.RequestID)

			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Error)
			}
		})
	}
}

func TestAsk_OK(t *testing.T) {
	t.Parallel()

	exec := &stubExecutor{records: []graphplan.Record{
		{"plate": "HHH8I88", "model": "Uno"},
		{"plate": "HHH8I88", "model": "Gol"},
	}}
	srv := server.New(stubPlanner{plan: platePlan}, exec, testCatalog())

	w := do(t, srv.Handler(), http.MethodPost, "/v1/ask", `{"query":"placa HHH8I88"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp server.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, platePlan.Steps, resp.Plan)
	assert.Len(t, resp.Records, 2)
	assert.Same(t, platePlan, exec.got)
}

func TestAsk_Where(t *testing.T) {
	t.Parallel()

	exec := &stubExecutor{records: []graphplan.Record{
		{"plate": "HHH8I88", "model": "Uno"},
		{"plate": "HHH8I88", "model": "Gol"},
		{"plate": "HHH8I88"},
	}}
	srv := server.New(stubPlanner{plan: platePlan}, exec, testCatalog())

	w := do(t, srv.Handler(), http.MethodPost, "/v1/ask",
		`{"query":"placa HHH8I88","where":"model == \"Gol\""}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp server.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	want := []graphplan.Record{{"plate": "HHH8I88", "model": "Gol"}}
	if diff := cmp.Diff(want, resp.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestAsk_BadWhere(t *testing.T) {
	t.Parallel()

	exec := &stubExecutor{}
	srv := server.New(stubPlanner{plan: platePlan}, exec, testCatalog())

	w := do(t, srv.Handler(), http.MethodPost, "/v1/ask", `{"query":"placa HHH8I88","where":"model =="}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, exec.got, "executor must not run on a bad filter")
}

func TestAsk_ExecutionError(t *testing.T) {
	t.Parallel()

	exec := &stubExecutor{err: graphplan.NewError("runner.Execute", graphplan.ErrQueryExecution,
		"Neo.ClientError.Statement.SyntaxError", nil)}
	srv := server.New(stubPlanner{plan: platePlan}, exec, testCatalog())

	w := do(t, srv.Handler(), http.MethodPost, "/v1/ask", `{"query":"placa HHH8I88"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp server.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "QUERY_EXECUTION", resp.Code)
	assert.Equal(t, "Neo.ClientError.Statement.SyntaxError", resp.Error)
}

func TestIntents(t *testing.T) {
	t.Parallel()

	srv := server.New(stubPlanner{}, &stubExecutor{}, testCatalog())

	w := do(t, srv.Handler(), http.MethodGet, "/v1/intents", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got server.IntentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))

	want := server.IntentsResponse{
		Version:      "5.2-metadata",
		GeneratedAt:  "2026-01-02T03:04:05Z",
		TotalIntents: 2,
		Intents: []server.IntentSummary{
			{ID: "intent_1", Category: "Vehicle", Description: "Search Vehicle by plate", Steps: 1},
			{ID: "intent_2", Category: "Person", Description: "Search Person by cpf", Steps: 1},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("intents mismatch (-want +got):\n%s", diff)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cat  *catalog.Catalog
		want string
	}{
		{"loaded", testCatalog(), `{"intents":2,"status":"ok"}`},
		{"empty", catalog.Empty(), `{"intents":0,"status":"degraded"}`},
		{"nil", nil, `{"intents":0,"status":"degraded"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := server.New(stubPlanner{}, &stubExecutor{}, tt.cat)

			w := do(t, srv.Handler(), http.MethodGet, "/healthz", "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := telemetry.NewMetrics()
	m.RecordPlan(telemetry.OutcomePlanned, 0.9)

	srv := server.New(stubPlanner{}, &stubExecutor{}, testCatalog(), server.WithMetrics(m))

	w := do(t, srv.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `graphplan_planner_plans_total{outcome="planned"} 1`)

	// Without metrics the route is not registered.
	bare := server.New(stubPlanner{}, &stubExecutor{}, testCatalog())
	assert.Equal(t, http.StatusNotFound, do(t, bare.Handler(), http.MethodGet, "/metrics", "").Code)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	t.Parallel()

	srv := server.New(stubPlanner{}, &stubExecutor{}, testCatalog())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, srv.ListenAndServe(ctx, "127.0.0.1:0"))
}
