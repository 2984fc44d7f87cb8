package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/actxion/auth/core"
	"github.com/actxion/auth/ports"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// userRecord is the persisted form of core.User.
// WalletAddress is nullable so that the unique index only covers bound wallets.
type userRecord struct {
	ID            string  `gorm:"primaryKey;type:text"`
	Email         string  `gorm:"uniqueIndex;size:320;not null"`
	PasswordHash  string  `gorm:"size:255;not null"`
	WalletAddress *string `gorm:"uniqueIndex;size:42"`
	Signature     string  `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (userRecord) TableName() string { return "users" }

func (r *userRecord) toCore() *core.User {
	u := &core.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Signature:    r.Signature,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.WalletAddress != nil {
		u.WalletAddress = *r.WalletAddress
	}
	return u
}

// GormUserStore persists users through gorm
type GormUserStore struct {
	db *gorm.DB
}

// OpenPostgres connects to Postgres with error translation enabled
func OpenPostgres(dsn string) (*gorm.DB, error) {
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold: 1500 * time.Millisecond,
			LogLevel:      logger.Warn,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// NewGormUserStore creates the store and migrates the users table
func NewGormUserStore(db *gorm.DB) (ports.UserStore, error) {
	if err := db.AutoMigrate(&userRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate users: %w", err)
	}
	return &GormUserStore{db: db}, nil
}

// Create inserts a user, assigning an id when missing
func (s *GormUserStore) Create(ctx context.Context, user *core.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	rec := userRecord{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Signature:    user.Signature,
	}
	if user.WalletAddress != "" {
		rec.WalletAddress = &user.WalletAddress
	}

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return createError(err)
	}

	user.CreatedAt = rec.CreatedAt
	user.UpdatedAt = rec.UpdatedAt
	return nil
}

// FindByID returns the user with id
func (s *GormUserStore) FindByID(ctx context.Context, id string) (*core.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

// FindByEmail returns the user registered with email
func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.findOne(ctx, "email = ?", email)
}

// FindByWallet returns the user owning address
func (s *GormUserStore) FindByWallet(ctx context.Context, address string) (*core.User, error) {
	return s.findOne(ctx, "wallet_address = ?", address)
}

// BindWallet attaches address to the user inside a transaction.
// The current owner row is locked so two binds of one address serialize.
func (s *GormUserStore) BindWallet(ctx context.Context, userID, address, signature string) (*core.User, error) {
	var rec userRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner userRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("wallet_address = ?", address).
			Take(&owner).Error
		if err := ownerConflict(&owner, err, userID); err != nil {
			return err
		}

		res := tx.Model(&userRecord{}).Where("id = ?", userID).Updates(map[string]any{
			"wallet_address": address,
			"signature":      signature,
			"updated_at":     time.Now().UTC(),
		})
		if res.Error != nil {
			return bindError(res.Error)
		}
		if res.RowsAffected == 0 {
			return core.ErrUserNotFound
		}

		if err := tx.Take(&rec, "id = ?", userID).Error; err != nil {
			return unavailable("reload user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec.toCore(), nil
}

// UnbindWallet clears the wallet address and signature of the user
func (s *GormUserStore) UnbindWallet(ctx context.Context, userID string) (*core.User, error) {
	res := s.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", userID).Updates(map[string]any{
		"wallet_address": nil,
		"signature":      "",
		"updated_at":     time.Now().UTC(),
	})
	if res.Error != nil {
		return nil, unavailable("unbind wallet", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, core.ErrUserNotFound
	}

	return s.FindByID(ctx, userID)
}

func (s *GormUserStore) findOne(ctx context.Context, query string, arg any) (*core.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).Where(query, arg).Take(&rec).Error; err != nil {
		return nil, findError(err)
	}
	return rec.toCore(), nil
}

// createError maps an insert failure; the only unique column set at insert is email
func createError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return core.ErrEmailTaken
	}
	return unavailable("create user", err)
}

// ownerConflict decides whether the locked owner lookup blocks binding to userID
func ownerConflict(owner *userRecord, lookupErr error, userID string) error {
	switch {
	case lookupErr == nil:
		if owner.ID != userID {
			return core.ErrDuplicateWalletBinding
		}
		return nil
	case errors.Is(lookupErr, gorm.ErrRecordNotFound):
		return nil
	default:
		return unavailable("lookup wallet owner", lookupErr)
	}
}

// bindError maps an update failure; a unique violation means another user won the address
func bindError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return core.ErrDuplicateWalletBinding
	}
	return unavailable("bind wallet", err)
}

func findError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.ErrUserNotFound
	}
	return unavailable("find user", err)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %v", op, core.ErrStoreUnavailable, err)
}
