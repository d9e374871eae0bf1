package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenFormat = errors.New("invalid token format")
	ErrTokenSig    = errors.New("invalid token signature")
	ErrTokenExp    = errors.New("token expired")
	ErrTokenSID    = errors.New("session id mismatch")
	ErrNoSecret    = errors.New("worker token secret not configured")
)

// Claims is what a worker token asserts: the speech worker may attach to SessionID
// until Expires.
type Claims struct {
	SessionID string
	Expires   time.Time
}

// Sign builds a token for c.
// Format: base64url(session_id + "." + exp_unix + "." + hex(hmac_sha256(secret, session_id+"."+exp)))
func Sign(secret string, c Claims) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	if c.SessionID == "" || strings.Contains(c.SessionID, ".") {
		return "", ErrTokenFormat
	}
	msg := c.SessionID + "." + strconv.FormatInt(c.Expires.Unix(), 10)
	raw := msg + "." + hex.EncodeToString(mac(secret, msg))
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

// Verify checks the signature and expiry of token and that it was issued for
// sessionID. A token is still accepted up to skew after it expires.
func Verify(secret, token, sessionID string, now time.Time, skew time.Duration) (Claims, error) {
	if secret == "" {
		return Claims{}, ErrNoSecret
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Claims{}, ErrTokenFormat
	}
	parts := strings.Split(string(b), ".")
	if len(parts) != 3 {
		return Claims{}, ErrTokenFormat
	}
	sid, expStr, sigHex := parts[0], parts[1], parts[2]
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return Claims{}, ErrTokenFormat
	}
	got, err := hex.DecodeString(sigHex)
	if err != nil {
		return Claims{}, ErrTokenFormat
	}
	if !hmac.Equal(mac(secret, sid+"."+expStr), got) {
		return Claims{}, ErrTokenSig
	}
	if sessionID != "" && sid != sessionID {
		return Claims{}, ErrTokenSID
	}
	c := Claims{SessionID: sid, Expires: time.Unix(exp, 0)}
	if now.After(c.Expires.Add(skew)) {
		return Claims{}, ErrTokenExp
	}
	return c, nil
}

func mac(secret, msg string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(msg))
	return h.Sum(nil)
}
