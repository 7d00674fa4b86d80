// Package tokenstore persists the access/refresh token pair in the client
// state database, encrypted at rest with AES-256-GCM.
package tokenstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/viixen/nix-client/internal/database"
	"github.com/viixen/nix-client/internal/entities"
)

const (
	// EnvEncryptionKey is the environment variable for the encryption key
	EnvEncryptionKey = "NIX_TOKEN_KEY"

	keySize = 32
)

var errDecryptionFailed = errors.New("token decryption failed")

// Store reads and writes the stored session tokens. It satisfies both the
// executor's TokenSource and the normalizer's TokenClearer.
type Store struct {
	db  *database.Database
	gcm cipher.AEAD
}

// New creates a token store. The encryption key is resolved from the
// environment first, then from keyFilePath; a missing key file is
// populated with a freshly generated key.
func New(db *database.Database, keyFilePath string) (*Store, error) {
	key, err := resolveKey(keyFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Store{db: db, gcm: gcm}, nil
}

func resolveKey(keyFilePath string) ([]byte, error) {
	if encoded := os.Getenv(EnvEncryptionKey); encoded != "" {
		return decodeKey(encoded)
	}

	if data, err := os.ReadFile(keyFilePath); err == nil {
		return decodeKey(string(data))
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(keyFilePath, []byte(encoded), 0600); err != nil {
		return nil, fmt.Errorf("failed to save encryption key to %s: %w", keyFilePath, err)
	}
	return key, nil
}

func decodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 key: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes for AES-256", keySize)
	}
	return key, nil
}

// Save stores the token pair, replacing any previous session.
func (s *Store) Save(access, refresh string) error {
	if err := s.put(entities.TokenKindAccess, access); err != nil {
		return err
	}
	return s.put(entities.TokenKindRefresh, refresh)
}

// AccessToken returns the stored access token, if any.
func (s *Store) AccessToken() (string, bool) {
	return s.get(entities.TokenKindAccess)
}

// RefreshToken returns the stored refresh token, if any.
func (s *Store) RefreshToken() (string, bool) {
	return s.get(entities.TokenKindRefresh)
}

// Clear removes both tokens. Called on logout and on any 401.
func (s *Store) Clear() error {
	return s.db.DB.Where("1 = 1").Delete(&entities.StoredToken{}).Error
}

// AccessExpiresWithin reports whether the stored access token's exp claim
// falls inside the given margin. The token is parsed without signature
// verification; the client holds no signing key and only needs the claim.
func (s *Store) AccessExpiresWithin(margin time.Duration) bool {
	raw, ok := s.AccessToken()
	if !ok {
		return false
	}

	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().Add(margin).After(exp.Time)
}

func (s *Store) put(kind, value string) error {
	sealed, err := s.seal(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s token: %w", kind, err)
	}

	var existing entities.StoredToken
	result := s.db.DB.Where("kind = ?", kind).First(&existing)
	if result.Error == gorm.ErrRecordNotFound {
		return s.db.DB.Create(&entities.StoredToken{Kind: kind, Value: sealed}).Error
	}
	if result.Error != nil {
		return result.Error
	}
	existing.Value = sealed
	return s.db.DB.Save(&existing).Error
}

func (s *Store) get(kind string) (string, bool) {
	var stored entities.StoredToken
	if err := s.db.DB.Where("kind = ?", kind).First(&stored).Error; err != nil {
		return "", false
	}
	value, err := s.open(stored.Value)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

// seal encrypts plaintext and returns base64 ciphertext with the nonce
// prepended.
func (s *Store) seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	ciphertext := s.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (s *Store) open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	ciphertext, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	if len(ciphertext) < s.gcm.NonceSize() {
		return "", errDecryptionFailed
	}
	nonce := ciphertext[:s.gcm.NonceSize()]
	plaintext, err := s.gcm.Open(nil, nonce, ciphertext[s.gcm.NonceSize():], nil)
	if err != nil {
		return "", errDecryptionFailed
	}
	return string(plaintext), nil
}
