// Encrypted cookie sessions for the office staff endpoints. The session
// payload travels inside the cookie itself, sealed with AES-256-GCM, so
// the server keeps no session table.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// CookieName is the session cookie issued on login
const CookieName = "medidores_session"

var errSessionInvalid = errors.New("session cookie invalid or expired")

// SessionData is the sealed cookie payload
type SessionData struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionManager seals and opens session cookies
type SessionManager struct {
	aead cipher.AEAD
	ttl  time.Duration
}

// NewSessionManager builds a manager from the configured key. Any key
// string is accepted: it is hashed to the fixed AES-256 size. An empty
// key gets a random one, which invalidates sessions on restart.
func NewSessionManager(key string, ttl time.Duration) (*SessionManager, error) {
	var material []byte
	if key == "" {
		material = make([]byte, 32)
		if _, err := rand.Read(material); err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
	} else {
		sum := sha256.Sum256([]byte(key))
		material = sum[:]
	}

	block, err := aes.NewCipher(material)
	if err != nil {
		return nil, fmt.Errorf("failed to init session cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init session aead: %w", err)
	}

	return &SessionManager{aead: aead, ttl: ttl}, nil
}

// Issue seals a new session for email and sets the cookie on w
func (sm *SessionManager) Issue(w http.ResponseWriter, email string) error {
	data := SessionData{
		Email:     email,
		ExpiresAt: time.Now().Add(sm.ttl),
	}

	plaintext, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	nonce := make([]byte, sm.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate session nonce: %w", err)
	}
	sealed := sm.aead.Seal(nonce, nonce, plaintext, nil)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(sealed),
		Path:     "/",
		Expires:  data.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie
func (sm *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Open reads and verifies the session cookie from r
func (sm *SessionManager) Open(r *http.Request) (*SessionData, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, errSessionInvalid
	}

	sealed, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil || len(sealed) < sm.aead.NonceSize() {
		return nil, errSessionInvalid
	}

	nonce, ciphertext := sealed[:sm.aead.NonceSize()], sealed[sm.aead.NonceSize():]
	plaintext, err := sm.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errSessionInvalid
	}

	var data SessionData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, errSessionInvalid
	}
	if time.Now().After(data.ExpiresAt) {
		return nil, errSessionInvalid
	}

	return &data, nil
}
