package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/protomem/car-rental/internal/ctxstore"
	"github.com/protomem/car-rental/internal/response"
	"github.com/rs/cors"

	"github.com/tomasen/realip"
)

const (
	_traceIDKey    = ctxstore.Key("traceId")
	_traceIDHeader = "X-Trace-Id"
)

// traceID reuses a caller supplied trace id when it is a valid uuid and
// echoes the effective id back in the response.
func (app *application) traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := r.Header.Get(_traceIDHeader)
		if _, err := uuid.Parse(tid); err != nil {
			tid = genTraceID()
		}

		w.Header().Set(_traceIDHeader, tid)
		next.ServeHTTP(w, r.WithContext(ctxstore.With(r.Context(), _traceIDKey, tid)))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *application) logAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		mw := response.NewMetricsResponseWriter(w)
		next.ServeHTTP(mw, r)

		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}

		level := slog.LevelInfo
		switch {
		case mw.StatusCode >= http.StatusInternalServerError:
			level = slog.LevelError
		case mw.StatusCode >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		app.serverLogger().LogAttrs(r.Context(), level, "access",
			slog.Group("client", "ip", realip.FromRequest(r)),
			slog.Group("request",
				"method", r.Method,
				"url", r.URL.String(),
				"route", route,
				_traceIDKey.String(), ctxstore.FromOr(r.Context(), _traceIDKey, ""),
			),
			slog.Group("response", "status", mw.StatusCode, "size", mw.BytesCount),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

func (app *application) CORS(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{_traceIDHeader},
	}).Handler(next)
}

// requestLogger scopes the application logger to the current request.
func (app *application) requestLogger(r *http.Request) *slog.Logger {
	return app.logger.With(_traceIDKey.String(), ctxstore.FromOr(r.Context(), _traceIDKey, ""))
}

func genTraceID() string {
	id, _ := uuid.NewRandom()
	return id.String()
}
