package websocket

import "encoding/json"

// Actions exchanged on the guide stream.
const (
	ActionGenerate   = "generate"
	ActionGuideChunk = "guide_chunk"
	ActionGuideDone  = "guide_done"
	ActionError      = "error"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// GeneratePayload is the payload of a "generate" request.
type GeneratePayload struct {
	Country string `json:"country"`
}

// TextPayload carries a chunk of guide text or an error message.
type TextPayload struct {
	Country string `json:"country,omitempty"`
	Text    string `json:"text"`
}

// NewErrorMessage builds an "error" message.
func NewErrorMessage(text string) []byte {
	return encode(ActionError, TextPayload{Text: text})
}

// NewGuideChunkMessage builds a "guide_chunk" message.
func NewGuideChunkMessage(country, text string) []byte {
	return encode(ActionGuideChunk, TextPayload{Country: country, Text: text})
}

// NewGuideDoneMessage builds the "guide_done" message closing a stream.
func NewGuideDoneMessage(country string) []byte {
	return encode(ActionGuideDone, TextPayload{Country: country})
}

func encode(action string, payload interface{}) []byte {
	raw, _ := json.Marshal(payload)
	msg, _ := json.Marshal(Message{Action: action, Payload: raw})
	return msg
}
