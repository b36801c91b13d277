package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/vgrebnev/duolink/internal/application/config"
	"github.com/vgrebnev/duolink/internal/application/constant"
	"github.com/vgrebnev/duolink/internal/domain/events"
	"github.com/vgrebnev/duolink/internal/domain/runtime"
	"github.com/vgrebnev/duolink/internal/infra/adapters/memory"
	"github.com/vgrebnev/duolink/internal/usecase"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	// Large enough for SDP blobs, which can run to tens of kilobytes.
	maxMessageSize = 64 * 1024
)

type WebSocketHandler struct {
	upgrader *websocket.Upgrader

	wsRepo           memory.WebsocketConnectionRepository
	signalingUsecase usecase.SignalingUsecase
}

func NewWebSocketHandler(
	cfg *config.Config,
	wsRepo memory.WebsocketConnectionRepository,
	signalingUsecase usecase.SignalingUsecase,
) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Debug {
					return true
				}

				return r.Header.Get("Origin") == cfg.Domain
			},
		},
		wsRepo:           wsRepo,
		signalingUsecase: signalingUsecase,
	}
}

func (h *WebSocketHandler) Handle(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"WebSocket upgrade error",
			slog.Any(constant.Error, err),
		)
		return err
	}
	defer ws.Close()

	sess := runtime.NewSession()

	h.wsRepo.Add(sess.ID, ws)

	// Runs once, whether the client said leave first or just vanished.
	defer func() {
		h.signalingUsecase.HandleDisconnect(c.Request().Context(), sess)
		h.wsRepo.Remove(sess.ID)
	}()

	slog.Info("WebSocket connection established", slog.Any(constant.SessionID, sess.ID))

	ws.SetReadLimit(maxMessageSize)
	if err = ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-c.Request().Context().Done():
				return
			}
		}
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error(
					"webSocket read error",
					slog.Any(constant.Error, err),
				)
			}

			return nil
		}

		signalMessage := new(events.Message)

		if err = json.Unmarshal(msg, signalMessage); err != nil {
			slog.Error("unmarshal websocket message", slog.Any(constant.Error, err))

			return nil
		}

		h.handleMessage(c, sess, signalMessage)
	}
}

func (h *WebSocketHandler) handleMessage(c echo.Context, sess *runtime.Session, msg *events.Message) {
	ctx := c.Request().Context()

	switch msg.Type {
	case events.TypeCreate:
		h.signalingUsecase.HandleCreate(ctx, sess)

	case events.TypeJoin:
		var joinEvent events.JoinEvent

		if err := json.Unmarshal(msg.Data, &joinEvent); err != nil {
			slog.Warn("unmarshal join event", slog.Any(constant.Error, err))
			// A join we cannot parse is treated like a join to no room.
			h.signalingUsecase.HandleJoin(ctx, sess, events.JoinEvent{})
			return
		}

		h.signalingUsecase.HandleJoin(ctx, sess, joinEvent)

	case events.TypeLeave:
		h.signalingUsecase.HandleLeave(ctx, sess)

	case events.TypeOffer, events.TypeAnswer, events.TypeCandidate:
		h.signalingUsecase.HandleSignal(ctx, sess, msg)

	case events.TypePing:
		h.signalingUsecase.HandlePing(ctx, sess)

	default:
		slog.Warn("unknown message type",
			slog.String("type", msg.Type),
			slog.Any(constant.SessionID, sess.ID),
		)
	}
}
