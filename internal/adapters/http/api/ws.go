// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/rally/internal/adapters/ws"
	"github.com/okian/rally/pkg/logger"
)

// WSDependencies defines the interface for viewer group membership.
type WSDependencies interface {
	Subscribe(sub ws.Subscriber)
	Unsubscribe(id string)
	ClientBuffer() int
}

// WSHandler upgrades viewer connections onto the broadcast group.
type WSHandler struct {
	deps     WSDependencies
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new websocket handler. An empty origins list allows
// viewers from any origin.
func NewWSHandler(deps WSDependencies, origins []string) *WSHandler {
	return &WSHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
	}
}

func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.ToLower(o)] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no origin.
			return true
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}
}

// HandleJoin handles GET /ws/leaderboard upgrade requests. Joining is
// idempotent per connection: repeated join frames leave the viewer
// subscribed exactly once.
func (h *WSHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		return
	}

	log := logger.Named("ws")
	client := ws.NewClient(uuid.NewString(), conn, h.deps.ClientBuffer(), log)
	h.deps.Subscribe(client)

	client.ReadLoop(
		func() { h.deps.Subscribe(client) },
		func() { h.deps.Unsubscribe(client.ID()) },
	)
}
