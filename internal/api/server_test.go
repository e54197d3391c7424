package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/feedpulse/internal/report"
	"github.com/IshaanNene/feedpulse/internal/storage"
	"github.com/IshaanNene/feedpulse/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeStore struct {
	runs map[string]*types.Dataset
	err  error
}

func (f *fakeStore) Runs(ctx context.Context) ([]storage.RunInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []storage.RunInfo
	for id, ds := range f.runs {
		out = append(out, storage.RunInfo{RunID: id, Records: ds.Len(), ScrapedAt: "2024-05-01T12:00:00Z"})
	}
	return out, nil
}

func (f *fakeStore) Load(ctx context.Context, runID string) (*types.Dataset, error) {
	if f.err != nil {
		return nil, f.err
	}
	if ds, ok := f.runs[runID]; ok {
		return ds, nil
	}
	return &types.Dataset{RunID: runID}, nil
}

func newTestServer() *Server {
	return NewServer(":0", &fakeStore{runs: map[string]*types.Dataset{
		"run-1": {RunID: "run-1", Records: []types.Record{
			{Author: "Jane", Content: "great", Sentiment: types.Positive, Timestamp: "2024-05-01"},
			{Author: "Jane", Content: "meh", Sentiment: types.Neutral, Timestamp: "2d"},
			{Author: "John", Content: "awful", Sentiment: types.Negative, Timestamp: "2024-05-02"},
		}},
	}}, testLogger)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(), "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestListRuns(t *testing.T) {
	rec := get(t, newTestServer(), "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)

	var runs []storage.RunInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Equal(t, []storage.RunInfo{{RunID: "run-1", Records: 3, ScrapedAt: "2024-05-01T12:00:00Z"}}, runs)
}

func TestListRunsEmpty(t *testing.T) {
	s := NewServer(":0", &fakeStore{}, testLogger)
	rec := get(t, s, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestRecords(t *testing.T) {
	rec := get(t, newTestServer(), "/api/runs/run-1/records")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RunID   string         `json:"run_id"`
		Records []types.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "run-1", body.RunID)
	require.Len(t, body.Records, 3)
	require.Equal(t, types.Negative, body.Records[2].Sentiment)
	require.Contains(t, rec.Body.String(), `"Sentiment":"Positive"`)
}

func TestSummary(t *testing.T) {
	rec := get(t, newTestServer(), "/api/runs/run-1/summary?top=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var sum report.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	require.Equal(t, 3, sum.Total)
	require.Equal(t, []report.Count{{Key: "Jane", N: 2}}, sum.TopAuthors)
	require.Equal(t, 1, sum.Undated)
	require.Len(t, sum.Daily, 2)
}

func TestSummaryBadTop(t *testing.T) {
	rec := get(t, newTestServer(), "/api/runs/run-1/summary?top=x")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunNotFound(t *testing.T) {
	s := newTestServer()
	for _, path := range []string{"/api/runs/nope/records", "/api/runs/nope/summary"} {
		rec := get(t, s, path)
		require.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestStoreError(t *testing.T) {
	s := NewServer(":0", &fakeStore{err: errors.New("db locked")}, testLogger)
	rec := get(t, s, "/api/runs")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "db locked")
}

func TestListenAndServeStops(t *testing.T) {
	s := NewServer("127.0.0.1:0", &fakeStore{}, testLogger)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.ListenAndServe(ctx))
}
