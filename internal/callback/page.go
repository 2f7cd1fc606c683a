package callback

import (
	"bytes"
	"crypto/rand"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/callback.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/callback.html"))

type pageData struct {
	Kind        string
	Message     string
	Token       string
	RedirectTo  string
	DelayMillis int64
	Nonce       string
}

// Render writes the landing page for o. The inline script performs the one
// token write and the delayed redirect; it is allowed by a per-response CSP nonce.
func Render(w http.ResponseWriter, o Outcome) error {
	nonce, err := newNonce()
	if err != nil {
		return fmt.Errorf("csp nonce: %w", err)
	}
	var buf bytes.Buffer
	err = pageTmpl.Execute(&buf, pageData{
		Kind:        o.Kind.String(),
		Message:     o.Message,
		Token:       o.Token,
		RedirectTo:  o.RedirectTo,
		DelayMillis: o.Delay.Milliseconds(),
		Nonce:       nonce,
	})
	if err != nil {
		return fmt.Errorf("render callback page: %w", err)
	}
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; script-src 'nonce-"+nonce+"'; base-uri 'none'; frame-ancestors 'none'")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(buf.Bytes())
	return err
}

func newNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
