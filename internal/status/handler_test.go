package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RoGogDBD/activity-tracker/internal/input"
	models "github.com/RoGogDBD/activity-tracker/internal/model"
	"github.com/RoGogDBD/activity-tracker/internal/repository"
	"github.com/RoGogDBD/activity-tracker/internal/state"
)

type stubStore struct {
	pingErr error
}

func (s *stubStore) Name() string                                { return "stub" }
func (s *stubStore) Begin(context.Context) (repository.Tx, error) { return nil, errors.New("not implemented") }
func (s *stubStore) LoadSummary(context.Context) (models.SummaryRow, error) {
	return models.SummaryRow{}, repository.ErrNoSummary
}
func (s *stubStore) SumHistory(context.Context) (models.Delta, error) { return models.Delta{}, nil }
func (s *stubStore) Ping(context.Context) error                       { return s.pingErr }
func (s *stubStore) Close()                                           {}

func TestHandleStatusReportsCounters(t *testing.T) {
	metrics := state.New()
	metrics.RecordKeypress()
	metrics.RecordKeypress()
	metrics.RecordClick()
	metrics.RecordScroll(4)
	metrics.AddDistance(63360)
	metrics.MergeIntoTotals(metrics.IntervalSnapshot())

	bridge := input.NewBridge(1, zap.NewNop())
	bridge.Publish(input.Event{Kind: input.KeyPress})
	bridge.Publish(input.Event{Kind: input.KeyPress}) // dropped, buffer full

	h := NewHandler(metrics, bridge, &stubStore{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, uint64(2), resp.Interval.Keypresses)
	require.Equal(t, uint64(1), resp.Interval.MouseClicks)
	require.Equal(t, uint64(4), resp.Interval.ScrollSteps)
	require.InDelta(t, 1.0, resp.Interval.MouseDistanceMi, 1e-9)
	require.Equal(t, uint64(2), resp.Totals.Keypresses)
	require.Equal(t, uint64(1), resp.DroppedEvents)
}

func TestHandlePingTableDriven(t *testing.T) {
	tests := []struct {
		name     string
		store    repository.Store
		wantCode int
	}{
		{"reachable", &stubStore{}, http.StatusOK},
		{"unreachable", &stubStore{pingErr: errors.New("db locked")}, http.StatusInternalServerError},
		{"not configured", nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(state.New(), nil, tt.store, zap.NewNop())
			rec := httptest.NewRecorder()
			h.HandlePing(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
			require.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestRouterRoutes(t *testing.T) {
	h := NewHandler(state.New(), nil, &stubStore{}, zap.NewNop())
	srv := httptest.NewServer(NewRouter(h, zap.NewNop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ping, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	defer func() { _ = ping.Body.Close() }()
	require.Equal(t, http.StatusOK, ping.StatusCode)
}
