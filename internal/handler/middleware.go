package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/audit"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/logging"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// SessionCookie is the cookie carrying the caller's access token.
const SessionCookie = "accessToken"

// IdentityResolver turns an access token's subject into an identity.
type IdentityResolver interface {
	Identity(ctx context.Context, userID string) (model.Identity, error)
}

func accessToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Identity resolves the caller once per request and places the result on the
// request context. Requests without a known identity are refused with 401.
func Identity(users IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			who, err := users.Identity(r.Context(), token)
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if err != nil {
				writeServiceError(w, r, err)
				return
			}

			ctx := model.WithIdentity(r.Context(), who)
			ctx = logging.ContextWithUserID(ctx, who.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOrganizer refuses callers that are not organizers.
func RequireOrganizer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !caller(r).IsOrganizer() {
			writeError(w, http.StatusForbidden, "organizer access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Logger writes one structured line per request and observes its latency.
// It must run after chi's RequestID middleware.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.ContextWithRequestID(r.Context(), chimiddleware.GetReqID(r.Context()))
		ctx, trail := audit.WithTrail(ctx)
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		metrics.RecordHTTPRequest(r.Method, route, status, elapsed)

		ev := logging.Ctx(ctx).Info()
		if status >= http.StatusInternalServerError {
			ev = logging.Ctx(ctx).Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Strs("activity", trail.Types()).
			Msg("request")
	})
}
