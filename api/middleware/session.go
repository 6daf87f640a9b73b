package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/arcay3dlabs/storefront/pkg/config"
	"github.com/arcay3dlabs/storefront/pkg/logger"
)

const sessionIDKey = "sid"

// NewSessionStore builds the signed cookie store that carries the anonymous
// session id.
func NewSessionStore(cfg config.SessionConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.Secure
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.MaxAge = int(cfg.MaxAge.Seconds())
	return store
}

// Session makes sure every request carries an anonymous session id. A new
// id is minted, and the cookie written, when the cookie is missing or fails
// verification.
func Session(store sessions.Store, cookieName string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sess, err := store.Get(r, cookieName)
			if err != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "session.cookie_rejected")
			}

			sessionID, _ := sess.Values[sessionIDKey].(string)
			if _, parseErr := uuid.Parse(sessionID); parseErr != nil {
				sessionID = uuid.NewString()
				sess.Values[sessionIDKey] = sessionID
				if err := sess.Save(r, w); err != nil && logg != nil {
					logg.Error(ctx, "session.save_failed", err)
				}
			}

			ctx = WithSessionID(ctx, sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
