package httpapi

import (
	"net/http"
)

type healthResponse struct {
	Status     string  `json:"status"`
	QueueDepth int     `json:"queueDepth"`
	NextNonce  *uint64 `json:"nextNonce"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writePreflight(w)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, OPTIONS")
		s.writeError(w, http.StatusMethodNotAllowed, errorResponse{Error: msgMethod})
		return
	}
	resp := healthResponse{Status: "ok", QueueDepth: s.relay.Len()}
	if s.nonces != nil {
		if next, known := s.nonces.Peek(); known {
			resp.NextNonce = &next
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFallback(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writePreflight(w)
		return
	}
	http.NotFound(w, r)
}
