// Package session issues and verifies the signed, time-limited session credentials
// carried in the session cookie, and provides the per-request cookie jar used to
// read the inbound Cookie header and queue outbound Set-Cookie values.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Verify for every rejected token. Callers never
// learn which check failed.
var ErrInvalidToken = errors.New("session: invalid token")

// Codec issues and verifies session tokens for a subject (the user id).
type Codec interface {
	Issue(subject string) (string, error)
	Verify(token string) (string, error)
	TTL() time.Duration
}

// HMACCodec implements the colon-delimited `subject:issuedAtMillis:signature`
// scheme where signature = hex(HMAC-SHA256(secret, subject + ":" + issuedAtMillis)).
type HMACCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACCodec creates an HMACCodec. A nil now uses time.Now.
func NewHMACCodec(secret string, ttl time.Duration, now func() time.Time) *HMACCodec {
	if now == nil {
		now = time.Now
	}
	return &HMACCodec{secret: []byte(secret), ttl: ttl, now: now}
}

// TTL returns the validity window of issued tokens.
func (c *HMACCodec) TTL() time.Duration { return c.ttl }

// Issue signs subject with the current time.
func (c *HMACCodec) Issue(subject string) (string, error) {
	if subject == "" || strings.Contains(subject, ":") {
		return "", fmt.Errorf("session: subject %q cannot be encoded", subject)
	}
	message := subject + ":" + strconv.FormatInt(c.now().UnixMilli(), 10)
	return message + ":" + c.sign(message), nil
}

// Verify returns the subject of a well-formed, unexpired token with a valid signature.
// Tokens issued "in the future" (clock skew) are accepted; only age beyond the TTL is rejected.
func (c *HMACCodec) Verify(token string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return "", ErrInvalidToken
	}
	subject, stamp, signature := parts[0], parts[1], parts[2]
	if subject == "" {
		return "", ErrInvalidToken
	}

	issuedAt, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	if c.now().UnixMilli()-issuedAt > c.ttl.Milliseconds() {
		return "", ErrInvalidToken
	}

	expected := c.sign(subject + ":" + stamp)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", ErrInvalidToken
	}
	return subject, nil
}

func (c *HMACCodec) sign(message string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// JWTCodec implements the same contract with an HS256 JWT whose `sub` claim is
// the subject and whose `exp` is issuedAt + TTL.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTCodec creates a JWTCodec. A nil now uses time.Now.
func NewJWTCodec(secret string, ttl time.Duration, now func() time.Time) *JWTCodec {
	if now == nil {
		now = time.Now
	}
	return &JWTCodec{secret: []byte(secret), ttl: ttl, now: now}
}

// TTL returns the validity window of issued tokens.
func (c *JWTCodec) TTL() time.Duration { return c.ttl }

// Issue signs a JWT for subject.
func (c *JWTCodec) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("session: empty subject")
	}
	issuedAt := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses the JWT, checking signature method, signature and expiry.
func (c *JWTCodec) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
