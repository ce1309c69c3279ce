// Package middleware contains echo middlewares shared by all routes.
package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const sessionContextKey = "session"

// SessionCfg configures session cookie
type SessionCfg struct {
	CookieName string
	Secure     bool
	TimeToLive time.Duration
}

// Session makes sure every request belongs to a session, new session id is issued via cookie if request has none.
// Session cookie is HttpOnly and SameSite=Strict, it never carries anything but opaque id.
func Session(cfg SessionCfg) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionID := ""
			if cookie, err := c.Cookie(cfg.CookieName); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					sessionID = cookie.Value
				}
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			// sliding expiration
			c.SetCookie(&http.Cookie{
				Name:     cfg.CookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(cfg.TimeToLive.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteStrictMode,
			})

			c.Set(sessionContextKey, sessionID)
			return next(c)
		}
	}
}

// SessionID returns id of request session, it is empty if Session middleware wasn't applied
func SessionID(c echo.Context) string {
	if id, ok := c.Get(sessionContextKey).(string); ok {
		return id
	}
	return ""
}
