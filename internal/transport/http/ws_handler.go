package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"live-quiz-service/internal/app"
)

// WSHandler upgrades connections and dispatches inbound application
// messages by type into the session engine. Unknown types are silently
// ignored; malformed messages get a generic error push and leave session
// state unchanged.
type WSHandler struct {
	service  *app.SessionService
	registry *ConnRegistry
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewWSHandler(service *app.SessionService, registry *ConnRegistry, log *slog.Logger) *WSHandler {
	return &WSHandler{
		service:  service,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type inboundMessage struct {
	Type       string `json:"type"`
	QuizID     string `json:"quizId"`
	Key        string `json:"key"`
	Auth       string `json:"auth"`
	Name       string `json:"name"`
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

type errorMessage struct {
	Type string `json:"type"`
}

// ServeWS handles one connection's lifetime: mint a connection id,
// register it with the push channel, dispatch inbound messages in order,
// and run directory cleanup when the socket drops.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	connectionID := uuid.NewString()
	h.registry.Register(connectionID, conn)
	defer func() {
		h.registry.Unregister(connectionID)
		// The request context is gone once the socket drops.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.service.Disconnect(ctx, connectionID)
	}()

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		h.dispatch(r.Context(), connectionID, msg)
	}
}

func (h *WSHandler) dispatch(ctx context.Context, connectionID string, msg inboundMessage) {
	var err error
	switch msg.Type {
	case "join":
		err = h.join(ctx, connectionID, msg)
	case "restore":
		err = h.restore(ctx, connectionID, msg)
	case "host":
		err = h.host(ctx, connectionID, msg)
	case "setName":
		err = h.setName(ctx, msg)
	case "answer":
		err = h.answer(ctx, msg)
	case "advance":
		err = h.advance(ctx, msg)
	default:
		return
	}
	if err != nil {
		h.log.Warn("message handling failed", "type", msg.Type, "connection", connectionID, "err", err)
		if pushErr := h.registry.Push(ctx, connectionID, errorMessage{Type: "error"}); pushErr != nil {
			h.log.Warn("error push failed", "connection", connectionID, "err", pushErr)
		}
	}
}

func (h *WSHandler) join(ctx context.Context, connectionID string, msg inboundMessage) error {
	if msg.QuizID == "" {
		return errMissingField("quizId")
	}
	player, err := h.service.Join(ctx, connectionID, msg.QuizID)
	if err != nil {
		return err
	}
	return h.ackPlayer(ctx, connectionID, msg.QuizID, player.ID, player.Name, player.AuthToken)
}

func (h *WSHandler) restore(ctx context.Context, connectionID string, msg inboundMessage) error {
	if msg.QuizID == "" || msg.Auth == "" {
		return errMissingField("quizId/auth")
	}
	player, err := h.service.Restore(ctx, connectionID, msg.QuizID, msg.Auth)
	if err != nil {
		return err
	}
	return h.ackPlayer(ctx, connectionID, msg.QuizID, player.ID, player.Name, player.AuthToken)
}

func (h *WSHandler) host(ctx context.Context, connectionID string, msg inboundMessage) error {
	if msg.QuizID == "" || msg.Key == "" {
		return errMissingField("quizId/key")
	}
	return h.service.Host(ctx, connectionID, msg.QuizID, msg.Key)
}

func (h *WSHandler) setName(ctx context.Context, msg inboundMessage) error {
	if msg.QuizID == "" || msg.Auth == "" || msg.Name == "" {
		return errMissingField("quizId/auth/name")
	}
	return h.service.SetName(ctx, msg.QuizID, msg.Auth, msg.Name)
}

func (h *WSHandler) answer(ctx context.Context, msg inboundMessage) error {
	if msg.QuizID == "" || msg.Auth == "" || msg.QuestionID == "" {
		return errMissingField("quizId/auth/questionId")
	}
	return h.service.SubmitAnswer(ctx, msg.QuizID, msg.Auth, msg.QuestionID, msg.Value)
}

func (h *WSHandler) advance(ctx context.Context, msg inboundMessage) error {
	if msg.QuizID == "" || msg.Key == "" {
		return errMissingField("quizId/key")
	}
	_, err := h.service.Advance(ctx, msg.QuizID, msg.Key)
	return err
}

// ackPlayer sends the identity ack and the current peer list to a
// freshly joined or restored player.
func (h *WSHandler) ackPlayer(ctx context.Context, connectionID, quizID, playerID, name, auth string) error {
	if err := h.registry.Push(ctx, connectionID, app.UserMessage{
		Type: "user", ID: playerID, Name: name, Auth: auth,
	}); err != nil {
		return err
	}
	peers, err := h.service.Peers(ctx, quizID, playerID)
	if err != nil {
		return err
	}
	return h.registry.Push(ctx, connectionID, app.PeersMessage{Type: "peers", Peers: peers})
}

type errMissingField string

func (e errMissingField) Error() string { return "missing required field " + string(e) }
