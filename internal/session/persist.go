package session

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrBadSealKey is returned when the seal key is not the required length.
	ErrBadSealKey = errors.New("session: seal key must be 32 bytes")
	// ErrSealedDataCorrupt is returned when the persisted file cannot be
	// opened with the configured key.
	ErrSealedDataCorrupt = errors.New("session: persisted session corrupt or wrong key")
)

// Persister saves the session to a file sealed with ChaCha20-Poly1305 so the
// token is not readable at rest, and restores it at startup. Restored
// sessions with an expired JWT are discarded; opaque tokens without claims
// are kept and left for the backend to reject.
type Persister struct {
	path string
	key  []byte
	nowF func() time.Time
}

// NewPersister returns a Persister writing to path with the given 32-byte key.
func NewPersister(path string, key []byte) (*Persister, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrBadSealKey
	}
	return &Persister{path: path, key: key, nowF: time.Now}, nil
}

// Save seals and writes the session. The file is written atomically via a
// temp file rename and restricted to the owning user.
func (p *Persister) Save(sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.New(p.key)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	sealed := aead.Seal(nonce, nonce, raw, nil)

	tmp := p.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}

// Load restores the persisted session. Returns (nil, nil) when no file
// exists or the stored token has expired.
func (p *Persister) Load() (*Session, error) {
	sealed, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	aead, err := chacha20poly1305.New(p.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, ErrSealedDataCorrupt
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	raw, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealedDataCorrupt, err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealedDataCorrupt, err)
	}
	if tokenExpired(sess.Token, p.nowF()) {
		_ = p.Clear()
		return nil, nil
	}
	return &sess, nil
}

// Clear removes the persisted session file. Missing file is not an error.
func (p *Persister) Clear() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// The signature is not checked: the client cannot verify backend keys, it
// only wants to avoid restoring a session the backend is guaranteed to
// reject. Tokens that do not parse as JWTs or carry no exp are not expired
// from the client's point of view.
func tokenExpired(token string, now time.Time) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
