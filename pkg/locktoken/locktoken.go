// Package locktoken seals the balance a client observed into an opaque,
// authenticated token so that a later spend can prove what it was priced against.
package locktoken

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL bounds how long a token stays spendable after it was issued.
const DefaultTTL = 5 * time.Minute

const tagSize = 16

var additionalData = []byte("locktoken/v1")

// wire rejects non-zero trailing bits, so a token has exactly one accepted spelling.
var wire = base64.RawURLEncoding.Strict()

var (
	// ErrInvalidToken is returned for tokens that are malformed, tampered with or sealed under another key.
	ErrInvalidToken = errors.New("invalid lock token")
	// ErrExpiredToken is returned for authentic tokens older than the sealer's TTL.
	ErrExpiredToken = errors.New("lock token expired")
)

// Token is the wire form of a sealed lock. Clients round-trip it verbatim.
type Token struct {
	Enc  string `json:"enc"`
	IV   string `json:"iv"`
	Auth string `json:"auth"`
}

// Claims is the plaintext carried inside a Token.
type Claims struct {
	Code     string    `json:"code"`
	Balance  int64     `json:"balance"`
	IssuedAt time.Time `json:"iat"`
}

// Sealer seals and opens tokens with AES-256-GCM.
type Sealer struct {
	aead cipher.AEAD
	ttl  time.Duration
	now  func() time.Time
}

// Option configures a Sealer.
type Option func(*Sealer)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Sealer) { s.now = now }
}

// NewSealer derives the AES key from secret. A non-positive ttl selects DefaultTTL.
func NewSealer(secret string, ttl time.Duration, opts ...Option) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("lock token secret is required")
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &Sealer{aead: aead, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Seal issues a token for the given code and balance, stamped with the current time.
func (s *Sealer) Seal(code string, balance int64) (Token, error) {
	plain, err := json.Marshal(Claims{Code: code, Balance: balance, IssuedAt: s.now().UTC()})
	if err != nil {
		return Token{}, fmt.Errorf("failed to marshal claims: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Token{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := s.aead.Seal(nil, nonce, plain, additionalData)
	split := len(sealed) - tagSize
	enc := wire
	return Token{
		Enc:  enc.EncodeToString(sealed[:split]),
		IV:   enc.EncodeToString(nonce),
		Auth: enc.EncodeToString(sealed[split:]),
	}, nil
}

// Open authenticates tok and returns its claims.
func (s *Sealer) Open(tok Token) (Claims, error) {
	enc := wire
	ciphertext, err := enc.DecodeString(tok.Enc)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	nonce, err := enc.DecodeString(tok.IV)
	if err != nil || len(nonce) != s.aead.NonceSize() {
		return Claims{}, ErrInvalidToken
	}
	tag, err := enc.DecodeString(tok.Auth)
	if err != nil || len(tag) != tagSize {
		return Claims{}, ErrInvalidToken
	}

	plain, err := s.aead.Open(nil, nonce, append(ciphertext, tag...), additionalData)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(plain, &claims); err != nil {
		return Claims{}, ErrInvalidToken
	}
	if s.now().Sub(claims.IssuedAt) > s.ttl {
		return Claims{}, ErrExpiredToken
	}
	return claims, nil
}
