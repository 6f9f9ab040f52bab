package httpapi

import (
	"net/http"

	"github.com/rs/cors"
)

const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "GET, POST, OPTIONS, PUT, DELETE"
	corsAllowHeaders = "Content-Type, Authorization, X-Requested-With"
	corsMaxAge       = 86400
)

// newCORS answers browser preflights and stamps cross-origin responses.
func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:       []string{corsAllowOrigin},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions, http.MethodPut, http.MethodDelete},
		AllowedHeaders:       []string{"Content-Type", "Authorization", "X-Requested-With"},
		MaxAge:               corsMaxAge,
		OptionsSuccessStatus: http.StatusOK,
	})
}

// withCORSHeaders covers the requests rs/cors leaves alone: ones without an
// Origin header and OPTIONS requests that are not browser preflights.
func withCORSHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Origin") == "" || (r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") == "") {
			setCORSHeaders(w.Header())
		}
		next.ServeHTTP(w, r)
	})
}

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", corsAllowOrigin)
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Max-Age", "86400")
}

// writePreflight answers a non-browser OPTIONS with 200 and an empty body.
func writePreflight(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

func answerOptions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			writePreflight(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
