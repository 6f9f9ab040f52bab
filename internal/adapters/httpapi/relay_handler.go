package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"game-relayer/go-backend/internal/domains/relay"
	relaymodel "game-relayer/go-backend/internal/domains/relay/model"
)

const (
	msgMissingFields  = "Invalid request. 'playerAddress' and 'action' are required."
	msgInvalidScore   = "Invalid request. 'score' must be a non-negative integer."
	msgInvalidJSON    = "Invalid request. Body must be a JSON object."
	msgBodyTooLarge   = "Request body too large."
	msgRateLimited    = "Too many requests."
	msgMethod         = "Method not allowed."
	msgTxFailed       = "Transaction failed"
	msgTxStillPending = "Transaction still pending"
)

type relayPayload struct {
	PlayerAddress  string          `json:"playerAddress"`
	SubjectAddress string          `json:"subjectAddress"`
	Action         string          `json:"action"`
	Score          json.RawMessage `json:"score"`
}

type relayResponse struct {
	Success bool   `json:"success"`
	TxHash  string `json:"txHash"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writePreflight(w)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		s.writeError(w, http.StatusMethodNotAllowed, errorResponse{Error: msgMethod})
		return
	}
	client := clientKey(r, s.trustProxy)
	if !s.limiter.Allow(client, time.Now()) {
		s.telemetry.RateLimited()
		w.Header().Set("Retry-After", "1")
		s.writeError(w, http.StatusTooManyRequests, errorResponse{Error: msgRateLimited})
		return
	}

	req, status, msg := s.decodeRelayRequest(w, r)
	if status != 0 {
		s.logger.Warn("relay request rejected",
			"operation", "http.relay",
			"client_ip", client,
			"status", status,
			"reason", msg,
		)
		s.writeError(w, status, errorResponse{Error: msg})
		return
	}

	pending := s.relay.Enqueue(req)
	w.Header().Set("X-Request-ID", pending.ID())

	ctx, cancel := context.WithTimeout(r.Context(), s.waitTimeout)
	defer cancel()
	result, err := pending.Wait(ctx)
	if err != nil {
		// The queue still owns the request; only this caller stops waiting.
		s.logger.Warn("relay caller stopped waiting",
			"operation", "http.relay",
			"correlation_id", pending.ID(),
			"client_ip", client,
			"error", err,
		)
		s.writeError(w, http.StatusGatewayTimeout, errorResponse{Error: msgTxStillPending, RequestID: pending.ID()})
		return
	}

	switch {
	case result.OK():
		s.writeJSON(w, http.StatusOK, relayResponse{Success: true, TxHash: result.TxHash})
	case relaymodel.IsValidation(result.Err):
		s.writeError(w, http.StatusBadRequest, errorResponse{Error: result.Err.Error(), RequestID: pending.ID()})
	default:
		s.writeError(w, http.StatusInternalServerError, errorResponse{Error: msgTxFailed, RequestID: pending.ID()})
	}
}

// decodeRelayRequest returns a non-zero status when the body is unusable.
func (s *Server) decodeRelayRequest(w http.ResponseWriter, r *http.Request) (relay.Request, int, string) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	var payload relayPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return relay.Request{}, http.StatusRequestEntityTooLarge, msgBodyTooLarge
		}
		return relay.Request{}, http.StatusBadRequest, msgInvalidJSON
	}

	subject := strings.TrimSpace(payload.PlayerAddress)
	if subject == "" {
		subject = strings.TrimSpace(payload.SubjectAddress)
	}
	action := strings.TrimSpace(payload.Action)
	if subject == "" || action == "" {
		return relay.Request{}, http.StatusBadRequest, msgMissingFields
	}
	score, ok := parseScore(payload.Score)
	if !ok {
		return relay.Request{}, http.StatusBadRequest, msgInvalidScore
	}
	return relay.Request{Subject: subject, Action: action, Score: score}, 0, ""
}

// parseScore accepts an absent or null score, or a JSON integer in uint64 range.
func parseScore(raw json.RawMessage) (*uint64, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return nil, true
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return nil, false
	}
	return relay.ScoreOf(v), true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	s.telemetry.HTTPResponse(status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, body errorResponse) {
	s.writeJSON(w, status, body)
}
