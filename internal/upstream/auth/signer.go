// Package auth implements the CLOB L2 request-signing scheme: an
// HMAC-SHA256 signature over timestamp+method+path+body, base64url
// encoded, attached as a fixed set of POLY_* headers.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Credentials are the opaque CLOB-L2 identity handed out by the upstream
// exchange. All four fields must be set for Signer to attach headers.
type Credentials struct {
	Address    string
	APIKey     string
	Secret     string
	Passphrase string
}

func (c Credentials) empty() bool {
	return c.Address == "" || c.APIKey == "" || c.Secret == "" || c.Passphrase == ""
}

// Signer attaches POLY_* L2 auth headers to outgoing requests. A zero-value
// Signer (empty Credentials) is a no-op, so callers can construct one
// unconditionally and let missing config disable signing silently.
type Signer struct {
	creds Credentials
	now   func() time.Time
}

func New(creds Credentials) *Signer {
	return &Signer{creds: creds, now: time.Now}
}

// Sign attaches the L2 headers to req. body is the exact bytes that will be
// sent on the wire (nil/empty for GET). No-op when credentials are unset.
func (s *Signer) Sign(req *http.Request, body []byte) {
	if s == nil || s.creds.empty() {
		return
	}

	ts := strconv.FormatInt(s.now().Unix(), 10)
	path := req.URL.Path
	if req.URL.RawQuery != "" {
		path += "?" + req.URL.RawQuery
	}

	message := ts + req.Method + path + string(body)
	signature := hmacSign(message, s.creds.Secret)

	req.Header.Set("POLY_ADDRESS", s.creds.Address)
	req.Header.Set("POLY_API_KEY", s.creds.APIKey)
	req.Header.Set("POLY_PASSPHRASE", s.creds.Passphrase)
	req.Header.Set("POLY_TIMESTAMP", ts)
	req.Header.Set("POLY_SIGNATURE", signature)
}

// hmacSign decodes secret as tolerant base64url (- / _ swapped for + / /,
// non-alphabet bytes stripped, padding preserved on output) and returns the
// base64url signature of message under HMAC-SHA256.
func hmacSign(message, secret string) string {
	key := decodeBase64URLTolerant(secret)
	h := hmac.New(sha256.New, key)
	h.Write([]byte(message))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

func decodeBase64URLTolerant(secret string) []byte {
	s := strings.ReplaceAll(secret, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")
	s = stripNonBase64(s)

	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil {
		return decoded
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); err == nil {
		return decoded
	}
	return []byte(secret)
}

func stripNonBase64(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '/', r == '=':
			b.WriteRune(r)
		}
	}
	return b.String()
}
