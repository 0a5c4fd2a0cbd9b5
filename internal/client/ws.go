package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"mealboard/internal/stream"
)

// WSDialer opens live streams against a running mealboard server.
type WSDialer struct {
	// BaseURL is the server's HTTP base, e.g. "http://localhost:8080".
	BaseURL string
	// Token is the caller's bearer token.
	Token string
}

// Dial connects to /v1/sync/{kind}/ws for the given owner.
func (d *WSDialer) Dial(ctx context.Context, kind, owner string) (Stream, error) {
	event, ok := stream.EventName(kind)
	if !ok {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}

	wsURL := "ws" + strings.TrimPrefix(d.BaseURL, "http") +
		"/v1/sync/" + kind + "/ws?owner=" + url.QueryEscape(owner)
	header := http.Header{}
	if d.Token != "" {
		header.Set("Authorization", "Bearer "+d.Token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", wsURL, err)
	}

	ws := &wsStream{conn: conn, events: make(chan Delivery)}
	go ws.readLoop(event)
	return ws, nil
}

type wsStream struct {
	conn   *websocket.Conn
	events chan Delivery
}

func (s *wsStream) Events() <-chan Delivery { return s.events }

func (s *wsStream) Close() error {
	return s.conn.Close()
}

// wireDelivery matches the gateway payload: the record sits under the
// event-name key, so we decode loosely and pick it out.
func (s *wsStream) readLoop(event string) {
	defer close(s.events)
	for {
		var raw map[string]json.RawMessage
		if err := s.conn.ReadJSON(&raw); err != nil {
			return
		}

		var delivery Delivery
		if rec, ok := raw[event]; ok {
			var payload any
			if err := json.Unmarshal(rec, &payload); err == nil {
				delivery.Record = payload
			}
		}
		if src, ok := raw["sourceClientId"]; ok {
			var id *string
			if err := json.Unmarshal(src, &id); err == nil && id != nil {
				delivery.SourceClientID = *id
			}
		}
		s.events <- delivery
	}
}
