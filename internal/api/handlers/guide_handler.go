package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	gorilla "github.com/gorilla/websocket"
	"github.com/isdelr/grandline-guide/internal/api/respond"
	"github.com/isdelr/grandline-guide/internal/guide"
	ws "github.com/isdelr/grandline-guide/internal/websocket"
	"github.com/rs/zerolog/log"
)

const (
	invalidCountryMessage = "Please provide a valid country name."
	guideFailureMessage   = "Something went wrong while generating the country guide."
)

// GuideProvider is implemented by guide.Service.
type GuideProvider interface {
	Generate(ctx context.Context, country string) (string, error)
	Stream(ctx context.Context, country string, yield func(chunk string) error) error
}

// GuideHandler proxies country-guide requests to the generation API.
type GuideHandler struct {
	service  GuideProvider
	upgrader gorilla.Upgrader
}

// NewGuideHandler creates a new GuideHandler. Websocket upgrades are accepted
// from the given origins only; an empty list accepts same-host requests.
func NewGuideHandler(service GuideProvider, allowedOrigins []string) *GuideHandler {
	h := &GuideHandler{service: service}
	h.upgrader = gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if len(allowedOrigins) > 0 {
		allowed := make(map[string]bool, len(allowedOrigins))
		for _, o := range allowedOrigins {
			allowed[o] = true
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		}
	}
	return h
}

// GuideRequest is the body of POST /api/country-guide. A non-string country
// fails decoding.
type GuideRequest struct {
	Country *string `json:"country"`
}

// GuideResponse carries the generated text.
type GuideResponse struct {
	Result string `json:"result"`
}

// Generate handles POST /api/country-guide.
func (h *GuideHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var payload GuideRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Country == nil {
		respond.Error(w, http.StatusBadRequest, respond.KindValidation, invalidCountryMessage)
		return
	}

	text, err := h.service.Generate(r.Context(), *payload.Country)
	if err != nil {
		if errors.Is(err, guide.ErrInvalidCountry) {
			respond.Error(w, http.StatusBadRequest, respond.KindValidation, invalidCountryMessage)
			return
		}
		log.Error().Err(err).Str("country", *payload.Country).Msg("Guide generation failed")
		respond.Error(w, http.StatusInternalServerError, respond.KindUpstream, guideFailureMessage)
		return
	}

	respond.JSON(w, http.StatusOK, GuideResponse{Result: text})
}

// Stream upgrades to a websocket and answers every "generate" message with a
// sequence of guide_chunk messages followed by guide_done.
func (h *GuideHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Guide stream closed unexpectedly")
			}
			return
		}

		var msg ws.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Error().Err(err).Bytes("message", raw).Msg("Error decoding websocket message")
			if !h.send(conn, ws.NewErrorMessage("Invalid message")) {
				return
			}
			continue
		}

		if msg.Action != ws.ActionGenerate {
			log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
			if !h.send(conn, ws.NewErrorMessage("Unknown action: "+msg.Action)) {
				return
			}
			continue
		}

		if !h.streamGuide(r.Context(), conn, msg.Payload) {
			return
		}
	}
}

// streamGuide runs one generation and reports whether the connection is
// still usable.
func (h *GuideHandler) streamGuide(ctx context.Context, conn *gorilla.Conn, rawPayload json.RawMessage) bool {
	var payload ws.GeneratePayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return h.send(conn, ws.NewErrorMessage(invalidCountryMessage))
	}

	var writeErr error
	err := h.service.Stream(ctx, payload.Country, func(chunk string) error {
		writeErr = conn.WriteMessage(gorilla.TextMessage, ws.NewGuideChunkMessage(payload.Country, chunk))
		return writeErr
	})
	if writeErr != nil {
		log.Warn().Err(writeErr).Str("country", payload.Country).Msg("Guide stream client went away")
		return false
	}
	if err != nil {
		if errors.Is(err, guide.ErrInvalidCountry) {
			return h.send(conn, ws.NewErrorMessage(invalidCountryMessage))
		}
		log.Error().Err(err).Str("country", payload.Country).Msg("Guide stream failed")
		return h.send(conn, ws.NewErrorMessage(guideFailureMessage))
	}
	return h.send(conn, ws.NewGuideDoneMessage(payload.Country))
}

func (h *GuideHandler) send(conn *gorilla.Conn, msg []byte) bool {
	if err := conn.WriteMessage(gorilla.TextMessage, msg); err != nil {
		log.Warn().Err(err).Msg("Failed to write websocket message")
		return false
	}
	return true
}
