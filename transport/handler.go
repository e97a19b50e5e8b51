// Package transport exposes the chat rooms over websocket. It owns the HTTP
// surface, connection upgrade, inbound frame validation and the member
// lifecycle; all chat semantics live in the runtime package.
package transport

import (
	"chat-relay/domain"
	"chat-relay/runtime"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// clientPost is an inbound websocket frame: a client posting one message.
type clientPost struct {
	ClientGeneratedID       string `json:"client_generated_uuid" validate:"required,uuid"`
	Text                    string `json:"message" validate:"required"`
	Kind                    string `json:"message_kind" validate:"required"`
	ParentClientGeneratedID string `json:"parent_client_generated_uuid,omitempty" validate:"omitempty,uuid"`
}

// Handler holds the websocket surface dependencies.
type Handler struct {
	registry   *runtime.Registry
	validate   *validator.Validate
	upgrader   websocket.Upgrader
	bufferSize int
	log        *slog.Logger
}

func NewHandler(registry *runtime.Registry, allowedOrigins []string, bufferSize int, log *slog.Logger) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return &Handler{
		registry: registry,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		bufferSize: bufferSize,
		log:        log,
	}
}

// Router configures the HTTP routes.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", h.HandleWebSocket).Methods(http.MethodGet)
	return r
}

// HandleWebSocket handles GET /ws?userId=...&room=...&type=...
// Direct rooms additionally carry user1/user2 as the validation pair.
//
// The member joins after the room's warm-up finished, receives the history
// batch, then every inbound frame is a post. Disconnecting leaves the room
// and releases it through the registry so empty rooms get collected.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := query.Get("userId")
	roomKey := query.Get("room")
	kind := domain.RoomKind(query.Get("type"))

	if userID == "" || roomKey == "" || !kind.Valid() {
		http.Error(w, "userId, room and a valid type are required", http.StatusBadRequest)
		return
	}
	validation := directValidation(kind, query)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	room := h.registry.GetOrCreate(roomKey, kind, validation)
	select {
	case <-room.Ready():
	case <-r.Context().Done():
		_ = conn.Close()
		return
	}

	member := NewWSMember(userID, conn, h.bufferSize, h.log)
	room.Join(member)
	h.log.Info("Member joined", "room", roomKey, "member", userID)

	defer func() {
		room.Leave(userID)
		h.registry.Release(roomKey)
		_ = member.Close()
		h.log.Info("Member left", "room", roomKey, "member", userID)
	}()

	for {
		var post clientPost
		if err := conn.ReadJSON(&post); err != nil {
			return
		}
		if err := h.validate.Struct(post); err != nil {
			h.log.Warn("Rejecting invalid post", "member", userID, "error", err)
			continue
		}
		room.Post(userID, toMessage(post))
	}
}

func toMessage(post clientPost) domain.Message {
	return domain.Message{
		ID:                      uuid.New(),
		Text:                    post.Text,
		ClientGeneratedID:       post.ClientGeneratedID,
		Kind:                    post.Kind,
		ParentClientGeneratedID: post.ParentClientGeneratedID,
		CreatedAt:               timeNow(),
	}
}

func directValidation(kind domain.RoomKind, query map[string][]string) *domain.DirectValidation {
	if kind != domain.KindDirect {
		return nil
	}
	first := func(key string) string {
		if v, ok := query[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}
	user1, user2 := first("user1"), first("user2")
	if user1 == "" || user2 == "" {
		return nil
	}
	return &domain.DirectValidation{User1: user1, User2: user2}
}
