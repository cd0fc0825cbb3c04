package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/orgpulse/apiserver/internal/services"
	"github.com/orgpulse/apiserver/types"
)

type staticSnapshotter struct {
	snapshot []types.RecordSnapshot
}

func (s staticSnapshotter) Snapshot(context.Context) ([]types.RecordSnapshot, error) {
	return s.snapshot, nil
}

func summaryRouter(env *testEnv, snapshot []types.RecordSnapshot) *chi.Mux {
	router := chi.NewRouter()
	router.Route("/summary", func(r chi.Router) {
		SummaryRouter(r, services.NewSummaryService(staticSnapshotter{snapshot: snapshot}), nil, env.auth)
	})
	return router
}

func TestSummaryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "alice", "correct-horse-battery", true, false)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	router := summaryRouter(env, []types.RecordSnapshot{
		{MetricName: "Latency", TeamName: "Alpha", Value: 12, IngestedAt: base},
		{MetricName: "Latency", TeamName: "Alpha", Value: 5, IngestedAt: base.Add(time.Hour)},
		{MetricName: "Latency", TeamName: "Beta", Value: 5, IngestedAt: base},
	})

	req := httptest.NewRequest(http.MethodGet, "/summary", nil)
	for _, c := range env.loginCookies(t, user) {
		req.AddCookie(c)
	}
	rec := doRequest(router, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var summary types.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(summary.MetricTeamData) != 2 {
		t.Errorf("MetricTeamData rows = %d, want 2", len(summary.MetricTeamData))
	}
	if summary.MetricTeamData[0].TotalValue != 17 {
		t.Errorf("Latency/Alpha total = %v, want 17", summary.MetricTeamData[0].TotalValue)
	}
	if len(summary.RecordsByTeam) != 2 {
		t.Errorf("RecordsByTeam rows = %d, want 2", len(summary.RecordsByTeam))
	}
}

func TestSummaryEmptyDatasetMarshalsEmptyArrays(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "alice", "correct-horse-battery", true, false)
	router := summaryRouter(env, nil)

	req := httptest.NewRequest(http.MethodGet, "/summary", nil)
	for _, c := range env.loginCookies(t, user) {
		req.AddCookie(c)
	}
	rec := doRequest(router, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	for _, view := range []string{"metricTeamData", "recordsByTeam", "recordTrends", "teamContributions"} {
		if string(body[view]) != "[]" {
			t.Errorf("%s = %s, want []", view, body[view])
		}
	}
}

func TestSummaryRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	router := summaryRouter(env, nil)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/summary", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSummaryExportUnavailableWithoutStorage(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin", "correct-horse-battery", true, true)
	router := summaryRouter(env, nil)

	req := httptest.NewRequest(http.MethodPost, "/summary/export", nil)
	for _, c := range env.loginCookies(t, admin) {
		req.AddCookie(c)
	}
	rec := doRequest(router, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestSummaryExportRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	member := env.seedUser(t, "member", "correct-horse-battery", true, false)
	router := summaryRouter(env, nil)

	req := httptest.NewRequest(http.MethodPost, "/summary/export", nil)
	for _, c := range env.loginCookies(t, member) {
		req.AddCookie(c)
	}
	rec := doRequest(router, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
