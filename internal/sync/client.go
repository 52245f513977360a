package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/iudanet/linkkeeper/internal/document"
	"github.com/iudanet/linkkeeper/pkg/api"
)

//go:generate moq -out document_mock.go . DocumentStore

// DocumentStore defines the document operations the sync client needs
type DocumentStore interface {
	// Summary returns the per-actor counter summary of the local replica
	Summary() map[string]int64

	// ChangesSince serializes the operations missing from the given summary
	// Returns (nil, nil) when there is nothing to send
	ChangesSince(since map[string]int64) ([]byte, error)

	// ApplyRemote merges a received delta and persists it durably
	ApplyRemote(ctx context.Context, payload []byte) error
}

// Status состояние клиента синхронизации
type Status string

// Состояния машины синхронизации
const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusExchanging   Status = "exchanging"
	StatusIdle         Status = "idle"
	StatusError        Status = "error"
)

// EventKind вид события клиента
type EventKind string

// События, публикуемые клиентом
const (
	// EventStatusChanged изменилось состояние машины
	EventStatusChanged EventKind = "status_changed"

	// EventDocumentUpdated в документ влита удаленная дельта
	EventDocumentUpdated EventKind = "document_updated"

	// EventSyncError обмен завершился ошибкой, клиент переподключится
	EventSyncError EventKind = "sync_error"
)

// Event событие клиента синхронизации.
type Event struct {
	Err    error
	Kind   EventKind
	Status Status
}

const (
	defaultBaseBackoff = time.Second
	defaultMaxBackoff  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	eventBuffer        = 16
)

// Client машина состояний синхронизации одной реплики с одним relay.
// Локальные операции никогда не блокируются состоянием клиента:
// связь влияет только на то, когда другие реплики узнают об изменениях.
type Client struct {
	docs     DocumentStore
	progress *ProgressStore
	logger   *slog.Logger

	relayURL string
	docID    string
	senderID string

	mu     stdsync.RWMutex
	status Status

	events chan Event
	notify chan struct{}

	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// NewClient создает клиент синхронизации.
// docID — корневой идентификатор документа, senderID — идентификатор
// этой реплики (актор документа).
func NewClient(relayURL, docID, senderID string, docs DocumentStore, progress *ProgressStore, logger *slog.Logger) *Client {
	return &Client{
		docs:        docs,
		progress:    progress,
		logger:      logger,
		relayURL:    relayURL,
		docID:       docID,
		senderID:    senderID,
		status:      StatusDisconnected,
		events:      make(chan Event, eventBuffer),
		notify:      make(chan struct{}, 1),
		baseBackoff: defaultBaseBackoff,
		maxBackoff:  defaultMaxBackoff,
	}
}

// Status возвращает текущее состояние машины.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Events возвращает канал событий клиента. События, которые некому
// читать, отбрасываются: канал не должен тормозить обмен.
func (c *Client) Events() <-chan Event {
	return c.events
}

// NotifyLocalChange сообщает клиенту, что появились новые локальные
// операции. Никогда не блокирует вызывающего.
func (c *Client) NotifyLocalChange() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Client) setStatus(s Status) {
	c.mu.Lock()
	if c.status == s {
		c.mu.Unlock()
		return
	}
	c.status = s
	c.mu.Unlock()

	c.emit(Event{Kind: EventStatusChanged, Status: s})
}

func (c *Client) emit(e Event) {
	select {
	case c.events <- e:
	default:
	}
}

// Run держит реплику в синхронизации с relay до отмены контекста:
// подключение с экспоненциальным backoff, обмен, переподключение
// при обрыве. Протокольная ошибка прерывает только текущий обмен.
func (c *Client) Run(ctx context.Context) error {
	defer c.setStatus(StatusDisconnected)

	for {
		conn, err := c.connect(ctx)
		if err != nil {
			return err
		}

		err = c.exchange(ctx, conn, false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if errors.Is(err, api.ErrProtocol) {
				c.setStatus(StatusError)
			}
			c.logger.Warn("sync session ended", "error", err)
			c.emit(Event{Kind: EventSyncError, Err: err})
		}
	}
}

// SyncOnce выполняет один цикл синхронизации: подключиться, догнать
// relay, отправить локальные операции, отключиться. Без retry:
// недоступный relay — это ошибка вызова, о которой сообщается сразу.
func (c *Client) SyncOnce(ctx context.Context) error {
	c.setStatus(StatusConnecting)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.relayURL, nil)
	if err != nil {
		c.setStatus(StatusDisconnected)
		return fmt.Errorf("failed to connect to relay: %w", err)
	}

	err = c.exchange(ctx, conn, true)
	c.setStatus(StatusDisconnected)
	return err
}

// connect подключается к relay с ограниченным экспоненциальным backoff.
// Возвращает ошибку только при отмене контекста.
func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	c.setStatus(StatusConnecting)

	var conn *websocket.Conn
	backoff := retry.WithCappedDuration(c.maxBackoff, retry.NewExponential(c.baseBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		dialed, _, err := websocket.DefaultDialer.DialContext(ctx, c.relayURL, nil)
		if err != nil {
			c.logger.Debug("relay unreachable, will retry", "error", err)
			return retry.RetryableError(err)
		}
		conn = dialed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// exchange ведет обмен по открытому соединению до его завершения.
// В режиме once возвращается, как только реплика догнала relay
// и все локальные операции подтверждены.
func (c *Client) exchange(ctx context.Context, conn *websocket.Conn, once bool) error {
	defer conn.Close()
	c.setStatus(StatusExchanging)

	prog, err := c.progress.Get(ctx, c.relayURL)
	if err != nil {
		return err
	}

	join := &api.Frame{
		Type:     api.FrameJoin,
		DocID:    c.docID,
		SenderID: c.senderID,
		Since:    prog.LastSeq,
		Summary:  c.docs.Summary(),
	}
	if err := c.writeFrame(conn, join); err != nil {
		return err
	}

	// Читающая горутина: отмена контекста закрывает соединение,
	// чтобы разблокировать чтение
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	frames := make(chan *api.Frame)
	readErr := make(chan error, 1)
	go func() {
		defer close(frames)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			frame, err := api.ParseFrame(data)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		relayMax int64
		gotPeer  bool
		// Сводки отправленных, но еще не подтвержденных push'ей.
		// Relay подтверждает их в порядке отправки.
		pendingPush []map[string]int64
	)

	pushChanges := func() error {
		delta, err := c.docs.ChangesSince(prog.PushedSummary)
		if err != nil {
			return err
		}
		if delta == nil {
			return nil
		}
		summary := c.docs.Summary()
		frame := &api.Frame{
			Type:     api.FrameDelta,
			DocID:    c.docID,
			SenderID: c.senderID,
			Payload:  delta,
			Summary:  summary,
		}
		if err := c.writeFrame(conn, frame); err != nil {
			return err
		}
		pendingPush = append(pendingPush, summary)
		return nil
	}

	caughtUp := func() bool {
		return gotPeer && prog.LastSeq >= relayMax && len(pendingPush) == 0
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-c.notify:
			c.setStatus(StatusExchanging)
			if err := pushChanges(); err != nil {
				return err
			}
			if caughtUp() {
				c.setStatus(StatusIdle)
			}

		case frame, ok := <-frames:
			if !ok {
				select {
				case err := <-readErr:
					return fmt.Errorf("sync connection lost: %w", err)
				default:
					return errors.New("sync connection closed")
				}
			}

			if err := c.handleFrame(ctx, conn, frame, &prog, &relayMax, &gotPeer, &pendingPush, pushChanges); err != nil {
				return err
			}

			if caughtUp() {
				if once {
					return nil
				}
				c.setStatus(StatusIdle)
			}
		}
	}
}

// handleFrame обрабатывает один кадр от relay.
func (c *Client) handleFrame(
	ctx context.Context,
	conn *websocket.Conn,
	frame *api.Frame,
	prog *Progress,
	relayMax *int64,
	gotPeer *bool,
	pendingPush *[]map[string]int64,
	pushChanges func() error,
) error {
	switch frame.Type {
	case api.FramePeer:
		*gotPeer = true
		*relayMax = frame.Seq
		// Рукопожатие завершено: отправляем накопленные операции
		return pushChanges()

	case api.FrameDelta:
		// Дельта сливается и становится долговечной ДО подтверждения:
		// упавший здесь процесс теряет не больше неподтвержденного хвоста
		if err := c.docs.ApplyRemote(ctx, frame.Payload); err != nil {
			if errors.Is(err, document.ErrCausalityViolation) {
				return fmt.Errorf("%w: rejected delta: %w", api.ErrProtocol, err)
			}
			return err
		}
		c.emit(Event{Kind: EventDocumentUpdated})

		if frame.Seq > 0 {
			ack := &api.Frame{Type: api.FrameAck, Seq: frame.Seq}
			if err := c.writeFrame(conn, ack); err != nil {
				return err
			}
			if frame.Seq > prog.LastSeq {
				prog.LastSeq = frame.Seq
				if err := c.progress.Save(ctx, c.relayURL, *prog); err != nil {
					return err
				}
			}
		}
		return nil

	case api.FrameAck:
		// Relay подтвердил наш push в порядке отправки
		if len(*pendingPush) > 0 {
			prog.PushedSummary = (*pendingPush)[0]
			*pendingPush = (*pendingPush)[1:]
		}
		if frame.Seq > prog.LastSeq {
			prog.LastSeq = frame.Seq
		}
		return c.progress.Save(ctx, c.relayURL, *prog)

	case api.FrameError:
		return fmt.Errorf("%w: relay reported: %s", api.ErrProtocol, frame.Message)

	default:
		return fmt.Errorf("%w: unexpected %s frame from relay", api.ErrProtocol, frame.Type)
	}
}

func (c *Client) writeFrame(conn *websocket.Conn, frame *api.Frame) error {
	data, err := frame.Encode()
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write %s frame: %w", frame.Type, err)
	}
	return nil
}
