package authtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TTL is the lifetime of an install token. There is no revocation; a leaked
// token stays valid until expiry unless the server secret is rotated.
const TTL = 7 * 24 * time.Hour

var (
	ErrMalformed = errors.New("malformed token")
	ErrSignature = errors.New("token signature mismatch")
	ErrExpired   = errors.New("token expired")
)

// Payload is the signed content of an install token. Timestamps are unix
// milliseconds to stay wire-compatible with the extension client.
type Payload struct {
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	Nonce     string `json:"nonce"`
}

// Token bundles the opaque credential with its validity window.
type Token struct {
	Token     string `json:"token"`
	IssuedAt  int64  `json:"issuedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Issue signs a fresh token. The nonce is random per issuance so that two
// installs at the same millisecond never share a credential.
func Issue(secret string, now time.Time) (Token, error) {
	payload := Payload{
		IssuedAt:  now.UnixMilli(),
		ExpiresAt: now.Add(TTL).UnixMilli(),
		Nonce:     strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Token{}, err
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return Token{
		Token:     encoded + "." + sign(encoded, secret),
		IssuedAt:  payload.IssuedAt,
		ExpiresAt: payload.ExpiresAt,
	}, nil
}

// Verify checks structure, signature and expiry. Malformed input is a
// rejection, never a panic: tokens arrive straight off the network.
func Verify(token, secret string, now time.Time) (Payload, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" {
		return Payload{}, ErrMalformed
	}

	expected := sign(encoded, secret)
	// hmac.Equal is constant-time; the explicit length check mirrors it so a
	// truncated signature fails the same way as a wrong one.
	if len(signature) != len(expected) || !hmac.Equal([]byte(signature), []byte(expected)) {
		return Payload{}, ErrSignature
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Payload{}, ErrMalformed
	}
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Payload{}, ErrMalformed
	}
	if payload.ExpiresAt == 0 || payload.ExpiresAt < now.UnixMilli() {
		return Payload{}, ErrExpired
	}
	return payload, nil
}

func sign(data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
