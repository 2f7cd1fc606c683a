package handlers

import (
	"net/http"
	"time"

	"github.com/careercoach/careercoach/backend/go-services/internal/sessions"
	"github.com/gin-gonic/gin"
)

// SessionCookie writes and reads the signed session id cookie.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
	Codec  *sessions.CookieCodec
}

func (sc *SessionCookie) set(c *gin.Context, sess *sessions.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, sc.Codec.Encode(sess.ID), int(sc.TTL.Seconds()), "/", "", sc.Secure, true)
}

func (sc *SessionCookie) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, "", -1, "/", "", sc.Secure, true)
}

// id returns the verified session id, or "" when the cookie is absent or forged.
func (sc *SessionCookie) id(c *gin.Context) string {
	v, err := c.Cookie(sc.Name)
	if err != nil || v == "" {
		return ""
	}
	id, err := sc.Codec.Decode(v)
	if err != nil {
		return ""
	}
	return id
}
