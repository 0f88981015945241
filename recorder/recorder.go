package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrOffline   = errors.New("recorder is offline")
	ErrNoSession = errors.New("recorder is not bound to a session")
)

// Sender — серверная сторона протокола. Обычно это *Client,
// в тестах подменяется фейком.
type Sender interface {
	RecordAction(ctx context.Context, req RecordActionRequest) (*SetState, error)
	UndoLastAction(ctx context.Context, sessionID int) (*SetState, error)
	SaveActionsBatch(ctx context.Context, sessionID int, actions []Action) (int, error)
}

// Recorder ведёт запись действий матча и переживает обрывы связи.
// Источник состояния сети инжектируется каналом: true — связь есть,
// false — нет. Пока связи нет, действия копятся в очереди; после
// восстановления очередь уходит одним батчем и чистится только после
// подтверждённого успеха.
type Recorder struct {
	sender Sender
	logger *slog.Logger

	// flushMu сериализует Flush целиком, включая сетевой вызов:
	// одновременные сливы отправили бы один батч дважды.
	flushMu sync.Mutex

	mu        sync.Mutex
	online    bool
	sessionID int
	setID     int
	pending   []Action
}

func New(sender Sender, logger *slog.Logger) *Recorder {
	return &Recorder{
		sender: sender,
		logger: logger,
		online: true,
	}
}

// Bind привязывает рекордер к сессии и текущей партии.
func (r *Recorder) Bind(sessionID, setID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionID = sessionID
	r.setID = setID
}

// Run слушает источник состояния сети до закрытия канала или отмены
// контекста. Переход офлайн→онлайн запускает слив очереди.
func (r *Recorder) Run(ctx context.Context, connectivity <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-connectivity:
			if !ok {
				return
			}
			r.mu.Lock()
			wasOnline := r.online
			r.online = online
			r.mu.Unlock()

			if online && !wasOnline {
				if _, err := r.Flush(ctx); err != nil {
					r.logger.Error("failed to flush pending actions", slog.Any("error", err))
				}
			}
		}
	}
}

// Record отправляет действие либо ставит его в очередь, когда сети нет.
// Второе значение — true, если действие ушло в очередь. Транспортная
// ошибка тоже переводит рекордер в офлайн: действие не теряется.
func (r *Recorder) Record(ctx context.Context, action Action) (*SetState, bool, error) {
	r.mu.Lock()
	if r.sessionID == 0 {
		r.mu.Unlock()
		return nil, false, ErrNoSession
	}
	if !r.online {
		r.pending = append(r.pending, action)
		queued := len(r.pending)
		r.mu.Unlock()
		r.logger.Info("action queued offline", slog.Int("pending", queued))
		return nil, true, nil
	}
	sessionID, setID := r.sessionID, r.setID
	r.mu.Unlock()

	set, err := r.sender.RecordAction(ctx, RecordActionRequest{
		SessionID: sessionID,
		SetID:     setID,
		Action:    action,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			// Сервер отверг действие, очередь ни при чём.
			return nil, false, err
		}
		r.mu.Lock()
		r.online = false
		r.pending = append(r.pending, action)
		queued := len(r.pending)
		r.mu.Unlock()
		r.logger.Warn("network failure, action queued",
			slog.Int("pending", queued),
			slog.Any("error", err))
		return nil, true, nil
	}
	return set, false, nil
}

// Undo откатывает последнее действие автора. Работает только онлайн:
// какое действие последнее, решает сервер.
func (r *Recorder) Undo(ctx context.Context) (*SetState, error) {
	r.mu.Lock()
	if r.sessionID == 0 {
		r.mu.Unlock()
		return nil, ErrNoSession
	}
	if !r.online || len(r.pending) > 0 {
		r.mu.Unlock()
		return nil, ErrOffline
	}
	sessionID := r.sessionID
	r.mu.Unlock()

	return r.sender.UndoLastAction(ctx, sessionID)
}

// Flush отправляет накопленную очередь одним батчем. Очередь очищается
// только после подтверждённого успеха; при любой ошибке действия
// остаются на месте для следующей попытки. Параллельные вызовы
// выстраиваются в очередь: опоздавший увидит уже пустой список.
func (r *Recorder) Flush(ctx context.Context) (int, error) {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.mu.Lock()
	if len(r.pending) == 0 {
		r.mu.Unlock()
		return 0, nil
	}
	sessionID := r.sessionID
	batch := make([]Action, len(r.pending))
	copy(batch, r.pending)
	r.mu.Unlock()

	saved, err := r.sender.SaveActionsBatch(ctx, sessionID, batch)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	if len(batch) <= len(r.pending) {
		r.pending = r.pending[len(batch):]
	} else {
		r.pending = nil
	}
	r.mu.Unlock()

	r.logger.Info("pending actions flushed", slog.Int("saved", saved))
	return saved, nil
}

// Pending возвращает размер офлайн-очереди.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Online сообщает, считает ли рекордер сеть доступной.
func (r *Recorder) Online() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online
}
