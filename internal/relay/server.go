package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/linkkeeper/internal/identity"
	"github.com/iudanet/linkkeeper/pkg/api"
)

const (
	writeTimeout     = 10 * time.Second
	handshakeTimeout = 30 * time.Second
	outboundBuffer   = 16
)

// Server обслуживает websocket-подключения клиентов синхронизации.
type Server struct {
	ops      *OpStore
	hub      *Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// appendMu сериализует запись в журнал с публикацией в hub
	appendMu sync.Mutex
}

// NewServer создает relay-сервер поверх хранилища операций.
func NewServer(ops *OpStore, hub *Hub, logger *slog.Logger) *Server {
	return &Server{
		ops:    ops,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			// Relay обслуживает не-браузерные клиенты, Origin не проверяется
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Router возвращает HTTP-маршруты relay.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/sync", s.handleSync)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if err := s.serveConn(r.Context(), conn); err != nil {
		s.logger.Debug("sync connection closed", "error", err)
	}
}

// serveConn ведет одно подключение: рукопожатие, переигрывание журнала,
// затем прием новых операций и рассылка чужих.
func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) error {
	join, err := s.readJoin(conn)
	if err != nil {
		s.writeError(conn, err.Error())
		return err
	}
	docID, sender := join.DocID, join.SenderID

	// Подписка строго ДО снимка журнала: операция, записанная во время
	// переигрывания, попадает в канал подписчика, а не в щель между
	// журналом и подпиской. Дубликаты на стыке безвредны, слияние
	// у клиента идемпотентно.
	sub := s.hub.Subscribe(docID)
	defer s.hub.Unsubscribe(docID, sub)

	maxSeq, err := s.ops.MaxSeq(ctx, docID)
	if err != nil {
		s.writeError(conn, "internal error")
		return err
	}
	if err := s.writeFrame(conn, &api.Frame{Type: api.FramePeer, Seq: maxSeq}); err != nil {
		return err
	}

	// Переигрывание строго по порядку и ДО запуска рассылки:
	// к моменту любого более позднего кадра клиент уже видел весь хвост
	backlog, err := s.ops.Since(ctx, docID, join.Since)
	if err != nil {
		s.writeError(conn, "internal error")
		return err
	}
	for _, op := range backlog {
		frame := &api.Frame{
			Type:     api.FrameDelta,
			DocID:    op.DocID,
			SenderID: op.SenderID,
			Payload:  op.Payload,
			Seq:      op.Seq,
		}
		if err := s.writeFrame(conn, frame); err != nil {
			return err
		}
	}

	s.logger.Info("replica connected",
		"doc", docID,
		"sender", sender,
		"replayed", len(backlog),
	)

	g, ctx := errgroup.WithContext(ctx)

	// Отмена контекста закрывает соединение и разблокирует чтение
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	outbound := make(chan *api.Frame, outboundBuffer)

	// Писатель: единственная горутина, пишущая в соединение после рукопожатия
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case op, ok := <-sub:
				if !ok {
					// Hub вычеркнул отставшего подписчика. Обрываем
					// соединение: после переподключения клиент доберет
					// пропущенное переигрыванием журнала.
					return errors.New("subscriber lagged behind the hub")
				}
				frame := &api.Frame{
					Type:     api.FrameDelta,
					DocID:    op.DocID,
					SenderID: op.SenderID,
					Payload:  op.Payload,
					Seq:      op.Seq,
				}
				if op.SenderID == sender {
					// Собственная операция возвращается отправителю
					// подтверждением, в общем порядке доставки: ack с seq N
					// клиент видит только после всех чужих операций до N
					frame = &api.Frame{Type: api.FrameAck, Seq: op.Seq}
				}
				if err := s.writeFrame(conn, frame); err != nil {
					return err
				}
			case frame := <-outbound:
				if err := s.writeFrame(conn, frame); err != nil {
					return err
				}
				if frame.Type == api.FrameError {
					return fmt.Errorf("protocol error reported to client: %s", frame.Message)
				}
			}
		}
	})

	// Читатель: принимает push'и клиента
	g.Go(func() error {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return err
			}
			frame, err := api.ParseFrame(data)
			if err != nil {
				s.send(ctx, outbound, &api.Frame{Type: api.FrameError, Message: "malformed frame"})
				return err
			}

			switch frame.Type {
			case api.FrameDelta:
				// Запись и публикация под общим мьютексом: seq в каналах
				// подписчиков растет монотонно, доставка на каждом
				// подключении идет в порядке журнала. Подтверждение
				// придет отправителю через hub в том же порядке.
				s.appendMu.Lock()
				seq, err := s.ops.Append(ctx, docID, sender, frame.Payload)
				if err == nil {
					s.hub.Publish(&Op{
						Seq:      seq,
						DocID:    docID,
						SenderID: sender,
						Payload:  frame.Payload,
					})
				}
				s.appendMu.Unlock()
				if err != nil {
					s.send(ctx, outbound, &api.Frame{Type: api.FrameError, Message: "storage failure"})
					return err
				}

			case api.FrameAck:
				// Прогресс доставки ведет сам клиент, relay его не хранит

			default:
				s.send(ctx, outbound, &api.Frame{
					Type:    api.FrameError,
					Message: fmt.Sprintf("unexpected %s frame", frame.Type),
				})
				return fmt.Errorf("%w: unexpected %s frame from client", api.ErrProtocol, frame.Type)
			}
		}
	})

	return g.Wait()
}

// readJoin читает и проверяет первый кадр подключения.
func (s *Server) readJoin(conn *websocket.Conn) (*api.Frame, error) {
	if err := conn.SetReadDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read join frame: %w", err)
	}
	frame, err := api.ParseFrame(data)
	if err != nil {
		return nil, err
	}
	if frame.Type != api.FrameJoin {
		return nil, fmt.Errorf("%w: expected join, got %s", api.ErrProtocol, frame.Type)
	}
	if _, err := identity.Parse(frame.DocID); err != nil {
		return nil, fmt.Errorf("%w: invalid document id", api.ErrProtocol)
	}

	// Рукопожатие завершено, дальше соединение живет без дедлайна чтения
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, fmt.Errorf("failed to clear read deadline: %w", err)
	}
	return frame, nil
}

func (s *Server) send(ctx context.Context, outbound chan<- *api.Frame, frame *api.Frame) {
	select {
	case outbound <- frame:
	case <-ctx.Done():
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, frame *api.Frame) error {
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

func (s *Server) writeError(conn *websocket.Conn, msg string) {
	_ = s.writeFrame(conn, &api.Frame{Type: api.FrameError, Message: msg})
}
