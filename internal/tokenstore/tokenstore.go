// Package tokenstore persists the StudyMate API bearer token locally,
// encrypted with XChaCha20-Poly1305 so the sqlite file never holds it in
// the clear. It implements apiclient.TokenSource: the token is read back
// from storage on every request, so a re-login replaces it mid-session.
package tokenstore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"gorm.io/gorm"

	"github.com/vnioa/studymate-sync/internal/entities"
)

const (
	// EnvEncryptionKey is the environment variable for the encryption key
	EnvEncryptionKey = "TOKEN_ENCRYPTION_KEY"

	// DefaultKeyFileName is the default name for the key file
	DefaultKeyFileName = ".studymate-sync-key"
)

var (
	ErrInvalidKeySize   = errors.New("encryption key must be 32 bytes")
	ErrDecryptionFailed = errors.New("decryption failed: authentication error")
)

// TokenStore provides encrypted storage for the API bearer token.
type TokenStore struct {
	db   *gorm.DB
	aead cipher.AEAD
}

// KeyConfig controls where the encryption key comes from.
type KeyConfig struct {
	// EncryptionKey is the base64-encoded 32-byte encryption key.
	// If empty, will try to load from environment or key file.
	EncryptionKey string

	// KeyFilePath is the path to the encryption key file.
	// If empty, defaults to ~/.studymate-sync-key.
	KeyFilePath string
}

// New creates a TokenStore over an already opened database.
func New(db *gorm.DB, cfg KeyConfig) (*TokenStore, error) {
	encodedKey, err := resolveEncryptionKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encryption key: %w", err)
	}

	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKeySize
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if err := db.AutoMigrate(&entities.APIToken{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &TokenStore{db: db, aead: aead}, nil
}

// resolveEncryptionKey determines the encryption key from various sources
func resolveEncryptionKey(cfg KeyConfig) (string, error) {
	// Priority 1: Explicitly provided key
	if cfg.EncryptionKey != "" {
		return cfg.EncryptionKey, nil
	}

	// Priority 2: Environment variable
	if envKey := os.Getenv(EnvEncryptionKey); envKey != "" {
		return envKey, nil
	}

	// Priority 3: Key file
	keyFilePath := cfg.KeyFilePath
	if keyFilePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		keyFilePath = filepath.Join(homeDir, DefaultKeyFileName)
	}

	if data, err := os.ReadFile(keyFilePath); err == nil {
		return string(data), nil
	}

	// Generate new key and save it with restricted permissions
	newKey, err := GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate encryption key: %w", err)
	}

	if err := os.WriteFile(keyFilePath, []byte(newKey), 0600); err != nil {
		return "", fmt.Errorf("failed to save encryption key to %s: %w", keyFilePath, err)
	}

	return newKey, nil
}

// GenerateKey creates a new random base64-encoded 32-byte key.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// SaveToken stores the bearer token for the default account, replacing any
// previous one.
func (s *TokenStore) SaveToken(token string) error {
	encrypted, err := s.encrypt(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	record := &entities.APIToken{
		Account: entities.DefaultAccount,
		Token:   encrypted,
	}

	result := s.db.Where("account = ?", entities.DefaultAccount).
		Assign(map[string]interface{}{
			"token":      encrypted,
			"updated_at": time.Now(),
		}).
		FirstOrCreate(record)
	if result.Error != nil {
		return fmt.Errorf("failed to save token: %w", result.Error)
	}

	return nil
}

// Token returns the stored bearer token, or "" when no token is saved.
// Implements apiclient.TokenSource.
func (s *TokenStore) Token(_ context.Context) (string, error) {
	var record entities.APIToken
	result := s.db.Where("account = ?", entities.DefaultAccount).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load token: %w", result.Error)
	}

	token, err := s.decrypt(record.Token)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the stored token (logout).
func (s *TokenStore) DeleteToken() error {
	result := s.db.Where("account = ?", entities.DefaultAccount).
		Delete(&entities.APIToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete token: %w", result.Error)
	}
	return nil
}

// encrypt seals plaintext and returns base64 ciphertext with the nonce
// prepended.
func (s *TokenStore) encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (s *TokenStore) decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	if len(data) < s.aead.NonceSize() {
		return "", ErrDecryptionFailed
	}

	nonce, ciphertext := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}
