package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const shopperSessionKey = "shopper_id"

// NewSessionStore builds the signed cookie store that carries shopper ids.
func NewSessionStore(cfg config.SessionConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Shopper resolves the anonymous shopper id from the session cookie, issuing
// a new id on first visit or when the cookie cannot be verified.
func Shopper(store sessions.Store, name string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// A tampered or expired cookie still yields a fresh session.
			session, err := store.Get(r, name)
			if err != nil && logg != nil {
				logg.WarnErr(ctx, "shopper.session_invalid", err)
			}

			shopperID, _ := session.Values[shopperSessionKey].(string)
			if strings.TrimSpace(shopperID) == "" {
				shopperID = uuid.NewString()
				session.Values[shopperSessionKey] = shopperID
				if err := session.Save(r, w); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save shopper session"))
					return
				}
			}

			ctx = WithShopperID(ctx, shopperID)
			if logg != nil {
				ctx = logg.WithShopperID(ctx, shopperID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
