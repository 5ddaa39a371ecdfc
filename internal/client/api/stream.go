package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
)

type streamMessage struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type streamText struct {
	Country string `json:"country"`
	Text    string `json:"text"`
}

// StreamGuide requests a guide over the websocket endpoint and calls onChunk
// for every piece of text. It returns when the guide is complete.
func (c *Client) StreamGuide(ctx context.Context, country string, onChunk func(string)) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/country-guide/ws"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to open guide stream: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	payload, _ := json.Marshal(map[string]string{"country": country})
	if err := conn.WriteJSON(streamMessage{Action: "generate", Payload: payload}); err != nil {
		return fmt.Errorf("failed to send guide request: %w", err)
	}

	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("guide stream interrupted: %w", err)
		}

		var text streamText
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &text); err != nil {
				return fmt.Errorf("failed to decode guide stream message: %w", err)
			}
		}

		switch msg.Action {
		case "guide_chunk":
			onChunk(text.Text)
		case "guide_done":
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case "error":
			return &APIError{Kind: "upstream_error", Message: text.Text}
		default:
			return errors.New("unexpected guide stream message: " + msg.Action)
		}
	}
}
