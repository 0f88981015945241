package recorder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	recorded []RecordActionRequest
	batches  [][]Action
	undone   int

	recordErr error
	batchErr  error
}

func (s *fakeSender) RecordAction(ctx context.Context, req RecordActionRequest) (*SetState, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	s.recorded = append(s.recorded, req)
	return &SetState{ID: req.SetID, SessionID: req.SessionID, TeamScore: len(s.recorded)}, nil
}

func (s *fakeSender) UndoLastAction(ctx context.Context, sessionID int) (*SetState, error) {
	s.undone++
	return &SetState{SessionID: sessionID}, nil
}

func (s *fakeSender) SaveActionsBatch(ctx context.Context, sessionID int, actions []Action) (int, error) {
	if s.batchErr != nil {
		return 0, s.batchErr
	}
	batch := make([]Action, len(actions))
	copy(batch, actions)
	s.batches = append(s.batches, batch)
	return len(batch), nil
}

func newTestRecorder(sender Sender) *Recorder {
	r := New(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Bind(1, 11)
	return r
}

func attack() Action {
	return Action{TeamID: 10, Type: "attack", Result: "point"}
}

func TestRecordSendsWhenOnline(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRecorder(sender)

	set, queued, err := r.Record(context.Background(), attack())
	require.NoError(t, err)
	assert.False(t, queued)
	require.NotNil(t, set)
	assert.Equal(t, 0, r.Pending())
	require.Len(t, sender.recorded, 1)
	assert.Equal(t, 1, sender.recorded[0].SessionID)
	assert.Equal(t, 11, sender.recorded[0].SetID)
}

func TestRecordRequiresSession(t *testing.T) {
	r := New(&fakeSender{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, _, err := r.Record(context.Background(), attack())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestOfflineQueueGrowsWithoutNetworkCalls(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRecorder(sender)
	r.setOnline(false)

	for i := 0; i < 5; i++ {
		set, queued, err := r.Record(context.Background(), attack())
		require.NoError(t, err)
		assert.True(t, queued)
		assert.Nil(t, set)
	}

	assert.Equal(t, 5, r.Pending())
	assert.Empty(t, sender.recorded, "offline recording must not touch the network")
}

func TestNetworkFailureQueuesAction(t *testing.T) {
	sender := &fakeSender{recordErr: errors.New("connection refused")}
	r := newTestRecorder(sender)

	set, queued, err := r.Record(context.Background(), attack())
	require.NoError(t, err)
	assert.True(t, queued)
	assert.Nil(t, set)
	assert.False(t, r.Online())
	assert.Equal(t, 1, r.Pending())
}

func TestAPIErrorIsNotQueued(t *testing.T) {
	sender := &fakeSender{recordErr: &APIError{Message: "invalid action type"}}
	r := newTestRecorder(sender)

	_, queued, err := r.Record(context.Background(), attack())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, queued)
	assert.True(t, r.Online(), "server rejection is not a connectivity problem")
	assert.Equal(t, 0, r.Pending())
}

func TestFlushSendsQueueAsSingleBatch(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRecorder(sender)
	r.setOnline(false)

	for i := 0; i < 3; i++ {
		_, _, err := r.Record(context.Background(), attack())
		require.NoError(t, err)
	}
	r.setOnline(true)

	saved, err := r.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, saved)
	assert.Equal(t, 0, r.Pending())
	require.Len(t, sender.batches, 1)
	assert.Len(t, sender.batches[0], 3)
}

func TestFlushKeepsQueueOnFailure(t *testing.T) {
	sender := &fakeSender{batchErr: errors.New("connection reset")}
	r := newTestRecorder(sender)
	r.setOnline(false)

	_, _, err := r.Record(context.Background(), attack())
	require.NoError(t, err)

	_, err = r.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, r.Pending(), "queue clears only after confirmed success")

	// Повторная попытка после восстановления проходит.
	sender.batchErr = nil
	saved, err := r.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	assert.Equal(t, 0, r.Pending())
}

// blockingSender держит первый батч, пока тест не откроет ворота, —
// так два Flush гарантированно перекрываются во времени.
type blockingSender struct {
	fakeSender
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (s *blockingSender) SaveActionsBatch(ctx context.Context, sessionID int, actions []Action) (int, error) {
	s.once.Do(func() {
		close(s.entered)
		<-s.gate
	})
	return s.fakeSender.SaveActionsBatch(ctx, sessionID, actions)
}

func TestConcurrentFlushesSendQueueOnce(t *testing.T) {
	sender := &blockingSender{
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
	}
	r := newTestRecorder(sender)
	r.setOnline(false)

	for i := 0; i < 3; i++ {
		_, _, err := r.Record(context.Background(), attack())
		require.NoError(t, err)
	}
	r.setOnline(true)

	results := make(chan int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			saved, err := r.Flush(context.Background())
			assert.NoError(t, err)
			results <- saved
		}()
	}

	// Первый Flush висит в сети, второй обязан ждать, а не копировать
	// тот же батч.
	<-sender.entered
	close(sender.gate)
	wg.Wait()
	close(results)

	var total int
	for saved := range results {
		total += saved
	}
	assert.Equal(t, 3, total, "three queued actions must be saved exactly once")
	assert.Equal(t, 0, r.Pending())
	require.Len(t, sender.batches, 1, "overlapping flushes must not duplicate the batch")
	assert.Len(t, sender.batches[0], 3)
}

func TestUndoRefusedOffline(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRecorder(sender)
	r.setOnline(false)

	_, err := r.Undo(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
	assert.Equal(t, 0, sender.undone)
}

func TestUndoRefusedWithPendingQueue(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRecorder(sender)
	r.setOnline(false)
	_, _, err := r.Record(context.Background(), attack())
	require.NoError(t, err)
	r.setOnline(true)

	// Пока очередь не слита, на сервере нет "последнего" действия.
	_, err = r.Undo(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
}

func TestRunFlushesOnReconnect(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRecorder(sender)

	connectivity := make(chan bool)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx, connectivity)
	}()

	connectivity <- false
	require.Eventually(t, func() bool { return !r.Online() }, time.Second, time.Millisecond)

	_, _, err := r.Record(context.Background(), attack())
	require.NoError(t, err)
	require.Equal(t, 1, r.Pending())

	connectivity <- true
	close(connectivity)
	<-done

	assert.Equal(t, 0, r.Pending())
	require.Len(t, sender.batches, 1)
}

// setOnline — тестовый помощник для прямой установки состояния сети.
func (r *Recorder) setOnline(online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online = online
}
