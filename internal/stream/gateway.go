// Package stream exposes topic-scoped live event streams over websockets.
package stream

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mealboard/internal/auth"
	"mealboard/internal/mutate"
	"mealboard/internal/notify"
)

// Event names per subscribable entity kind, keyed by URL segment.
var eventNames = map[string]string{
	"ingredients": "ingredientUpdated",
	"meals":       "mealUpdated",
	"mealplans":   "mealPlanUpdated",
}

// EventName returns the change-event name for a kind URL segment.
func EventName(kind string) (string, bool) {
	ev, ok := eventNames[kind]
	return ev, ok
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Gateway attaches websocket clients to the change notifier.
type Gateway struct {
	notifier    *notify.Notifier
	interceptor *mutate.Interceptor
}

// NewGateway creates a Gateway forwarding from the given notifier.
func NewGateway(notifier *notify.Notifier, interceptor *mutate.Interceptor) *Gateway {
	return &Gateway{notifier: notifier, interceptor: interceptor}
}

// Handle returns the subscription handler. The route carries the entity
// kind as a path parameter and the owner id as a query parameter; the
// subscription lives until the client disconnects. Missed events are
// never replayed.
func (g *Gateway) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		event, ok := EventName(c.Param("kind"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown entity kind"})
			return
		}

		owner := c.Query("owner")
		if owner == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "owner query parameter required"})
			return
		}

		identity, _ := c.Get("identity")
		caller, _ := identity.(auth.Identity)
		if err := g.interceptor.Authorize(mutate.Caller{Identity: caller}, mutate.Ownership{UserID: owner}); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "not the owner of this stream"})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()

		topic := mutate.Topic(event, owner)
		sub := g.notifier.Subscribe(topic)
		defer sub.Close()
		slog.Info("subscription attached", "topic", topic)

		// Drain reads so we notice the peer going away.
		disconnected := make(chan struct{})
		go func() {
			defer close(disconnected)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := ws.WriteJSON(Delivery(event, ev)); err != nil {
					slog.Info("subscription closed on write", "topic", topic, "error", err)
					return
				}
			case <-disconnected:
				slog.Info("subscription detached", "topic", topic)
				return
			}
		}
	}
}

// Delivery translates an internal event into the wire payload
// {"<kind>Updated": record, "sourceClientId": id-or-null}.
func Delivery(event string, ev notify.Event) map[string]any {
	var source any
	if ev.OriginClientID != "" {
		source = ev.OriginClientID
	}
	return map[string]any{
		event:            ev.Payload,
		"sourceClientId": source,
	}
}
