package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/bkoseoglu/mallhub/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrTokenNotFound = errors.New("refresh token not found")

// RefreshStore persists refresh tokens by hash. Raw tokens are never stored.
type RefreshStore interface {
	Save(ctx context.Context, token *models.RefreshToken) error
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeSession(ctx context.Context, sessionID uuid.UUID) error
}

// NewRefreshToken returns a fresh opaque token and its storage hash.
func NewRefreshToken() (raw string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, HashToken(raw), nil
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

type GormRefreshStore struct {
	db *gorm.DB
}

func NewGormRefreshStore(db *gorm.DB) *GormRefreshStore {
	return &GormRefreshStore{db: db}
}

func (s *GormRefreshStore) Save(ctx context.Context, token *models.RefreshToken) error {
	return s.db.WithContext(ctx).Create(token).Error
}

func (s *GormRefreshStore) Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (s *GormRefreshStore) Revoke(ctx context.Context, tokenHash string) error {
	return s.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (s *GormRefreshStore) RevokeSession(ctx context.Context, sessionID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("session_id = ?", sessionID).
		Update("revoked", true).Error
}

// MemoryRefreshStore backs the in-memory driver and tests.
type MemoryRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func NewMemoryRefreshStore() *MemoryRefreshStore {
	return &MemoryRefreshStore{tokens: make(map[string]*models.RefreshToken)}
}

func (s *MemoryRefreshStore) Save(_ context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	cp := *token
	s.tokens[token.TokenHash] = &cp
	return nil
}

func (s *MemoryRefreshStore) Find(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[tokenHash]
	if !ok {
		return nil, ErrTokenNotFound
	}
	cp := *token
	return &cp, nil
}

func (s *MemoryRefreshStore) Revoke(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token, ok := s.tokens[tokenHash]; ok {
		token.Revoked = true
	}
	return nil
}

func (s *MemoryRefreshStore) RevokeSession(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, token := range s.tokens {
		if token.SessionID == sessionID {
			token.Revoked = true
		}
	}
	return nil
}
