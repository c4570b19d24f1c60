package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bkoseoglu/mallhub/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccounts is the PostgreSQL-backed AccountStore.
type GormAccounts struct {
	db *gorm.DB
}

func NewGormAccounts(db *gorm.DB) *GormAccounts {
	return &GormAccounts{db: db}
}

func (s *GormAccounts) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return &account, nil
}

func (s *GormAccounts) ByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return &account, nil
}

func (s *GormAccounts) Create(ctx context.Context, account *models.Account) error {
	// The unique index on email is the arbiter; a pre-read would race
	// concurrent registrations.
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *GormAccounts) UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error {
	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"display_name": name, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to update display name: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
