package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedNow() time.Time { return time.Unix(1700000000, 0) }

func TestSign_NoopWithEmptyCredentials(t *testing.T) {
	s := New(Credentials{})
	req := httptest.NewRequest(http.MethodGet, "https://example.com/markets", nil)
	s.Sign(req, nil)
	assert.Empty(t, req.Header.Get("POLY_SIGNATURE"))
}

func TestSign_NilSignerIsNoop(t *testing.T) {
	var s *Signer
	req := httptest.NewRequest(http.MethodGet, "https://example.com/markets", nil)
	assert.NotPanics(t, func() { s.Sign(req, nil) })
}

func TestSign_AttachesAllHeaders(t *testing.T) {
	s := New(Credentials{Address: "0xaddr", APIKey: "key", Secret: "c2VjcmV0", Passphrase: "pass"})
	s.now = fixedNow
	req := httptest.NewRequest(http.MethodPost, "https://example.com/orders?limit=10", nil)
	s.Sign(req, []byte(`{"a":1}`))

	assert.Equal(t, "0xaddr", req.Header.Get("POLY_ADDRESS"))
	assert.Equal(t, "key", req.Header.Get("POLY_API_KEY"))
	assert.Equal(t, "pass", req.Header.Get("POLY_PASSPHRASE"))
	assert.Equal(t, "1700000000", req.Header.Get("POLY_TIMESTAMP"))
	assert.NotEmpty(t, req.Header.Get("POLY_SIGNATURE"))
}

func TestSign_DeterministicForSameInputs(t *testing.T) {
	creds := Credentials{Address: "0xaddr", APIKey: "key", Secret: "c2VjcmV0", Passphrase: "pass"}
	s1 := New(creds)
	s1.now = fixedNow
	s2 := New(creds)
	s2.now = fixedNow

	req1 := httptest.NewRequest(http.MethodGet, "https://example.com/markets", nil)
	req2 := httptest.NewRequest(http.MethodGet, "https://example.com/markets", nil)
	s1.Sign(req1, nil)
	s2.Sign(req2, nil)

	assert.Equal(t, req1.Header.Get("POLY_SIGNATURE"), req2.Header.Get("POLY_SIGNATURE"))
}

func TestDecodeBase64URLTolerant_SwapsURLSafeChars(t *testing.T) {
	// the std-alphabet form and its url-safe ('+/' -> '-_') equivalent must decode identically
	std := decodeBase64URLTolerant("+/8=")
	urlSafe := decodeBase64URLTolerant("-_8=")
	assert.Equal(t, std, urlSafe)
	assert.Equal(t, []byte{0xFB, 0xFF}, std)
}

func TestDecodeBase64URLTolerant_FallsBackToRawBytes(t *testing.T) {
	out := decodeBase64URLTolerant("!!!not-base64-at-all###")
	assert.NotEmpty(t, out)
}

func TestStripNonBase64_RemovesInvalidBytes(t *testing.T) {
	assert.Equal(t, "YWJj", stripNonBase64("YW#J!j"))
}
