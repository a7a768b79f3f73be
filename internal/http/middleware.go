package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BrowserCookie identifies a browser across requests. Its value scopes the
// browser's keys in the shared store.
const BrowserCookie = "storefront_browser"

type ctxKey int

const browserKey ctxKey = iota

// BrowserMiddleware loads the calling browser's session.Context, issuing a
// new browser cookie on first visit.
func BrowserMiddleware(store storage.Store, maxAge time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(BrowserCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					id = c.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     BrowserCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(maxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := r.Context()
			sc, err := session.Load(ctx, storage.Scoped(store, "browser:"+id), logger.FromContext(ctx))
			if err != nil {
				logger.FromContext(ctx).Error("load browser state", zap.String("browser", id), zap.Error(err))
				respondError(w, r, http.StatusServiceUnavailable, "storage_unavailable", "browser state is unavailable")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, browserKey, sc)))
		})
	}
}

// RequestIDMiddleware echoes the request id and attaches a request-scoped
// logger to the context. It runs after chi's middleware.RequestID.
func RequestIDMiddleware(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			l := base.With(zap.String("request_id", requestID))
			ctx := logger.WithContext(r.Context(), l)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			logger.FromContext(ctx).Info("request served",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

func getBrowserFromContext(ctx context.Context) *session.Context {
	sc, _ := ctx.Value(browserKey).(*session.Context)
	return sc
}
