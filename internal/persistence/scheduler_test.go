package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RoGogDBD/activity-tracker/internal/audit"
	models "github.com/RoGogDBD/activity-tracker/internal/model"
	"github.com/RoGogDBD/activity-tracker/internal/repository"
	"github.com/RoGogDBD/activity-tracker/internal/state"
)

type fakeTx struct {
	store      *fakeStore
	inserted   *models.Delta
	applied    *models.Delta
	rolledBack bool
}

func (t *fakeTx) InsertMetricsRow(_ context.Context, d models.Delta) error {
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	t.inserted = &d
	return nil
}

func (t *fakeTx) ApplySummaryDelta(_ context.Context, d models.Delta) error {
	if t.store.summaryErr != nil {
		return t.store.summaryErr
	}
	t.applied = &d
	return nil
}

func (t *fakeTx) Commit(_ context.Context) error {
	if t.inserted != nil {
		t.store.committed = append(t.store.committed, *t.inserted)
	}
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	t.rolledBack = true
	t.store.rollbacks++
	return nil
}

type fakeStore struct {
	name       string
	summary    models.SummaryRow
	summaryErr error
	loadErr    error
	historyErr error
	history    models.Delta
	beginErr   error
	insertErr  error

	begins    int
	committed []models.Delta
	rollbacks int
}

func (s *fakeStore) Name() string { return s.name }

func (s *fakeStore) Begin(_ context.Context) (repository.Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.begins++
	return &fakeTx{store: s}, nil
}

func (s *fakeStore) LoadSummary(_ context.Context) (models.SummaryRow, error) {
	if s.loadErr != nil {
		return models.SummaryRow{}, s.loadErr
	}
	return s.summary, nil
}

func (s *fakeStore) SumHistory(_ context.Context) (models.Delta, error) {
	if s.historyErr != nil {
		return models.Delta{}, s.historyErr
	}
	return s.history, nil
}

func (s *fakeStore) Ping(_ context.Context) error { return nil }
func (s *fakeStore) Close()                       {}

func TestSchedulerSeedTotalsFromSummary(t *testing.T) {
	metrics := state.New()
	primary := &fakeStore{
		name: "sqlite",
		summary: models.SummaryRow{
			TotalKeypresses:    100,
			TotalMouseClicks:   20,
			TotalScrollSteps:   5,
			TotalMouseTravelIn: 63360,
			LastUpdated:        time.Now(),
		},
	}
	s := NewScheduler(metrics, primary, nil, time.Minute, nil, zap.NewNop())

	s.seedTotals(context.Background())

	totals := metrics.Totals()
	require.Equal(t, uint64(100), totals.Keypresses)
	require.Equal(t, uint64(20), totals.MouseClicks)
	require.Equal(t, uint64(5), totals.ScrollSteps)
	require.InDelta(t, 63360.0, totals.MouseDistanceIn, 1e-9)
}

func TestSchedulerSeedTotalsFallsBackToHistory(t *testing.T) {
	metrics := state.New()
	primary := &fakeStore{
		name:    "sqlite",
		loadErr: repository.ErrNoSummary,
		history: models.Delta{Keypresses: 42, MouseDistanceIn: 10},
	}
	s := NewScheduler(metrics, primary, nil, time.Minute, nil, zap.NewNop())

	s.seedTotals(context.Background())

	totals := metrics.Totals()
	require.Equal(t, uint64(42), totals.Keypresses)
	require.InDelta(t, 10.0, totals.MouseDistanceIn, 1e-9)
}

func TestSchedulerSeedTotalsStartsFromZeroOnErrors(t *testing.T) {
	metrics := state.New()
	primary := &fakeStore{
		name:       "sqlite",
		loadErr:    errors.New("table locked"),
		historyErr: errors.New("table locked"),
	}
	s := NewScheduler(metrics, primary, nil, time.Minute, nil, zap.NewNop())

	s.seedTotals(context.Background())

	require.True(t, metrics.Totals().Empty())
}

func TestSchedulerEmptyTickSkipsStores(t *testing.T) {
	metrics := state.New()
	primary := &fakeStore{name: "sqlite"}
	secondary := &fakeStore{name: "postgres"}
	s := NewScheduler(metrics, primary, secondary, time.Minute, nil, zap.NewNop())

	s.tick(context.Background())

	require.Zero(t, primary.begins)
	require.Zero(t, secondary.begins)
}

func TestSchedulerTickPersistsToBothStores(t *testing.T) {
	metrics := state.New()
	metrics.RecordKeypress()
	metrics.RecordClick()
	metrics.RecordScroll(3)
	metrics.AddDistance(2.5)

	primary := &fakeStore{name: "sqlite"}
	secondary := &fakeStore{name: "postgres"}
	s := NewScheduler(metrics, primary, secondary, time.Minute, nil, zap.NewNop())

	s.tick(context.Background())

	require.Len(t, primary.committed, 1)
	require.Len(t, secondary.committed, 1)
	require.Equal(t, uint64(1), primary.committed[0].Keypresses)
	require.Equal(t, uint64(3), primary.committed[0].ScrollSteps)
	require.InDelta(t, 2.5, primary.committed[0].MouseDistanceIn, 1e-9)

	// interval consumed, totals advanced
	require.True(t, metrics.IntervalSnapshot().Empty())
	require.Equal(t, uint64(1), metrics.Totals().Keypresses)
}

func TestSchedulerSecondaryFailureDoesNotAffectPrimary(t *testing.T) {
	metrics := state.New()
	metrics.RecordKeypress()

	primary := &fakeStore{name: "sqlite"}
	secondary := &fakeStore{name: "postgres", beginErr: errors.New("connection refused")}
	s := NewScheduler(metrics, primary, secondary, time.Minute, nil, zap.NewNop())

	s.tick(context.Background())

	require.Len(t, primary.committed, 1)
	require.Empty(t, secondary.committed)
	require.Equal(t, uint64(1), metrics.Totals().Keypresses)
}

func TestSchedulerSummaryFailureRollsBack(t *testing.T) {
	metrics := state.New()
	metrics.RecordClick()

	primary := &fakeStore{name: "sqlite", summaryErr: errors.New("summary row missing")}
	s := NewScheduler(metrics, primary, nil, time.Minute, nil, zap.NewNop())

	s.tick(context.Background())

	require.Empty(t, primary.committed)
	require.Equal(t, 1, primary.rollbacks)
}

func TestSchedulerTotalsAccumulateAcrossTicks(t *testing.T) {
	metrics := state.New()
	primary := &fakeStore{
		name:    "sqlite",
		summary: models.SummaryRow{TotalKeypresses: 50},
	}
	s := NewScheduler(metrics, primary, nil, time.Minute, nil, zap.NewNop())
	s.seedTotals(context.Background())

	for i := 0; i < 4; i++ {
		metrics.RecordKeypress()
		s.tick(context.Background())
	}

	require.Equal(t, uint64(54), metrics.Totals().Keypresses)
	require.Len(t, primary.committed, 4)
}

type recordingObserver struct {
	events []models.AuditEvent
}

func (r *recordingObserver) OnAuditEvent(e models.AuditEvent) error {
	r.events = append(r.events, e)
	return nil
}

func TestSchedulerNotifiesAuditObservers(t *testing.T) {
	metrics := state.New()
	metrics.RecordKeypress()

	primary := &fakeStore{name: "sqlite"}
	secondary := &fakeStore{name: "postgres", beginErr: errors.New("connection refused")}

	mgr := audit.NewManager()
	obs := &recordingObserver{}
	mgr.Attach(obs)

	s := NewScheduler(metrics, primary, secondary, time.Minute, mgr, zap.NewNop())
	s.tick(context.Background())

	require.Len(t, obs.events, 2)
	require.Equal(t, "sqlite", obs.events[0].Store)
	require.Equal(t, models.AuditOutcomeOK, obs.events[0].Outcome)
	require.Equal(t, "postgres", obs.events[1].Store)
	require.Equal(t, models.AuditOutcomeError, obs.events[1].Outcome)
	require.Contains(t, obs.events[1].Error, "connection refused")
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	metrics := state.New()
	primary := &fakeStore{name: "sqlite"}
	s := NewScheduler(metrics, primary, nil, 5*time.Millisecond, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	metrics.RecordKeypress()
	require.Eventually(t, func() bool {
		return metrics.Totals().Keypresses == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
