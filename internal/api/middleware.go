// Package api implements the document authority's HTTP endpoint using chi.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rs/cors"
)

// CORS allows any origin to call the API.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:       []string{"Content-Type"},
		OptionsSuccessStatus: http.StatusOK,
	}).Handler
}

// Preflight answers every OPTIONS request with an empty success, including
// ones that lack the headers CORS needs to recognise a preflight.
func Preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Recover turns a panic into a 500 carrying the panic message as plain text.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			msg := fmt.Sprint(rec)
			if err, ok := rec.(error); ok {
				msg = err.Error()
			}
			slog.Error("handler panic",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("error", msg))
			writeText(w, http.StatusInternalServerError, msg)
		}()
		next.ServeHTTP(w, r)
	})
}
