package sessions

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var ErrBadCookie = errors.New("sessions: invalid cookie signature")

// CookieCodec signs session ids with HMAC-SHA256 so a client cannot forge
// or enumerate ids. Format: "<id>.<base64url(mac)>".
type CookieCodec struct {
	secret []byte
}

func NewCookieCodec(secret string) *CookieCodec {
	return &CookieCodec{secret: []byte(secret)}
}

func (c *CookieCodec) mac(id string) []byte {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(id))
	return h.Sum(nil)
}

func (c *CookieCodec) Encode(id string) string {
	return id + "." + base64.RawURLEncoding.EncodeToString(c.mac(id))
}

// Decode verifies the signature and returns the session id.
func (c *CookieCodec) Decode(value string) (string, error) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 {
		return "", ErrBadCookie
	}
	id, sig := value[:i], value[i+1:]
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", ErrBadCookie
	}
	if !hmac.Equal(got, c.mac(id)) {
		return "", ErrBadCookie
	}
	return id, nil
}
