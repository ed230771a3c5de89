package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/infyemailer-backoffice/internal/config"
	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/infyemailer-backoffice/internal/ledger"
	"github.com/infyemailer-backoffice/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSink mocks the Sink interface
type MockSink struct {
	mock.Mock
	name string
}

func (m *MockSink) Name() string { return m.name }

func (m *MockSink) Deliver(ctx context.Context, event *credit.LedgerEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// blockingSink holds every delivery until release is closed.
type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	got     []int64
}

func (s *blockingSink) Name() string { return "blocking" }

func (s *blockingSink) Deliver(_ context.Context, event *credit.LedgerEvent) error {
	<-s.release
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, event.Entry.ID)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func shutdown(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d.Shutdown(ctx)
}

func TestDispatcher_DeliversToEverySink(t *testing.T) {
	kafkaSink := &MockSink{name: "kafka"}
	mongoSink := &MockSink{name: "mongo"}

	entries := []credit.HistoryEntry{
		{ID: 1, Scope: credit.ScopeSystem, Type: credit.TransactionAllocate},
		{ID: 1, Scope: credit.ScopeClient, ClientID: 3, Type: credit.TransactionAdd},
	}
	for _, e := range entries {
		e := e
		matches := mock.MatchedBy(func(ev *credit.LedgerEvent) bool {
			return ev.Entry.Scope == e.Scope && ev.Entry.ID == e.ID
		})
		kafkaSink.On("Deliver", mock.Anything, matches).Return(nil).Once()
		mongoSink.On("Deliver", mock.Anything, matches).Return(nil).Once()
	}

	d, err := NewDispatcher(config.WorkerPoolConfig{Size: 2}, testLogger(), kafkaSink, mongoSink)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Capacity())

	d.Publish(context.Background(), entries...)
	shutdown(t, d)

	kafkaSink.AssertExpectations(t)
	mongoSink.AssertExpectations(t)
}

func TestDispatcher_SinkFailureDoesNotStopOthers(t *testing.T) {
	failing := &MockSink{name: "kafka"}
	healthy := &MockSink{name: "mongo"}
	failing.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	healthy.On("Deliver", mock.Anything, mock.Anything).Return(nil).Once()

	d, err := NewDispatcher(config.WorkerPoolConfig{Size: 1}, testLogger(), failing, healthy)
	require.NoError(t, err)

	d.Publish(context.Background(), credit.HistoryEntry{ID: 1, Scope: credit.ScopeSystem})
	shutdown(t, d)

	failing.AssertExpectations(t)
	healthy.AssertExpectations(t)
}

func TestDispatcher_CancelledContextStillDelivers(t *testing.T) {
	sink := &MockSink{name: "kafka"}
	sink.On("Deliver", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).Return(nil).Once()

	d, err := NewDispatcher(config.WorkerPoolConfig{Size: 1}, testLogger(), sink)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Publish(ctx, credit.HistoryEntry{ID: 1, Scope: credit.ScopeSystem})
	shutdown(t, d)

	sink.AssertExpectations(t)
}

func TestDispatcher_FullPoolDropsInsteadOfBlocking(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d, err := NewDispatcher(config.WorkerPoolConfig{Size: 1}, testLogger(), sink)
	require.NoError(t, err)

	returned := make(chan struct{})
	go func() {
		d.Publish(context.Background(),
			credit.HistoryEntry{ID: 1, Scope: credit.ScopeSystem},
			credit.HistoryEntry{ID: 2, Scope: credit.ScopeSystem},
		)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full pool")
	}

	close(sink.release)
	shutdown(t, d)
	assert.Equal(t, []int64{1}, sink.got)
}

func TestDispatcher_NoSinksIsNoop(t *testing.T) {
	d, err := NewDispatcher(config.WorkerPoolConfig{Size: 1}, testLogger())
	require.NoError(t, err)
	d.Publish(context.Background(), credit.HistoryEntry{ID: 1})
	assert.Equal(t, 0, d.Running())
	shutdown(t, d)
}

var _ ledger.Publisher = (*Dispatcher)(nil)

func TestDispatcher_PublishAfterShutdownIsRejected(t *testing.T) {
	sink := &MockSink{name: "late-sink"}
	d, err := NewDispatcher(config.WorkerPoolConfig{Size: 2}, testLogger(), sink)
	require.NoError(t, err)
	shutdown(t, d)

	rejected := metrics.EventsPublished.WithLabelValues("late-sink", metrics.OutcomeRejected)
	before := testutil.ToFloat64(rejected)

	d.Publish(context.Background(),
		credit.HistoryEntry{ID: 1, Scope: credit.ScopeSystem},
		credit.HistoryEntry{ID: 2, Scope: credit.ScopeSystem},
	)

	assert.Equal(t, before+2, testutil.ToFloat64(rejected))
	sink.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestDispatcher_PublishRacingShutdown(t *testing.T) {
	sink := &MockSink{name: "racing-sink"}
	sink.On("Deliver", mock.Anything, mock.Anything).Return(nil)
	d, err := NewDispatcher(config.WorkerPoolConfig{Size: 4}, testLogger(), sink)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			d.Publish(context.Background(), credit.HistoryEntry{ID: id, Scope: credit.ScopeSystem})
		}(int64(i))
	}
	shutdown(t, d)
	wg.Wait()

	// every publish either ran before Shutdown returned or was rejected
	assert.LessOrEqual(t, len(sink.Calls), 20)
}
