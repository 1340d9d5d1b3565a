package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arenaforge/gameapi/auth"
	"github.com/arenaforge/gameapi/db"
	"github.com/arenaforge/gameapi/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService owns account persistence and credential checks.
type UserService struct {
	db      *gorm.DB
	hasher  auth.Hasher
	limiter *LoginLimiter
	logger  *zap.Logger

	// dummyHash is compared against when an email is unknown so both
	// failure paths pay for one hash comparison.
	dummyHash string
}

// NewUserService creates a UserService. limiter may be nil.
func NewUserService(db *gorm.DB, hasher auth.Hasher, limiter *LoginLimiter, logger *zap.Logger) *UserService {
	dummy, err := hasher.Hash("Unused-Passw0rd")
	if err != nil {
		logger.Warn("dummy hash generation failed", zap.Error(err))
	}
	return &UserService{db: db, hasher: hasher, limiter: limiter, logger: logger, dummyHash: dummy}
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Username length limits, in characters.
const (
	MinUsernameLength = 8
	MaxUsernameLength = 20
)

// ValidateUsername checks the length of an already trimmed username.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return fmt.Errorf("%w: must be %d-%d characters", ErrInvalidUsername, MinUsernameLength, MaxUsernameLength)
	}
	return nil
}

// Register creates an account with role user. The unique indexes on
// username and email decide races; the loser gets ErrDuplicateUsername or
// ErrDuplicateEmail and nothing is written.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = NormalizeEmail(email)

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}
	// Cheap pre-check so an obvious duplicate skips bcrypt.
	if err := s.duplicateOf(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if db.IsUniqueViolation(err) {
			if dup := s.duplicateOf(ctx, username, email); dup != nil {
				return nil, dup
			}
		}
		return nil, storageErr("create user", err)
	}
	s.logger.Info("user registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// duplicateOf reports which unique field already exists, username first.
func (s *UserService) duplicateOf(ctx context.Context, username, email string) error {
	tx := s.db.WithContext(ctx)
	var n int64
	if err := tx.Model(&model.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return storageErr("check username", err)
	}
	if n > 0 {
		return ErrDuplicateUsername
	}
	if err := tx.Model(&model.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return storageErr("check email", err)
	}
	if n > 0 {
		return ErrDuplicateEmail
	}
	return nil
}

// Authenticate checks an email and password. Unknown email and wrong
// password both return ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = NormalizeEmail(email)
	if s.limiter.Locked(ctx, email) {
		return nil, ErrTooManyAttempts
	}

	var u model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.hasher.Verify(password, s.dummyHash)
		s.limiter.RecordFailure(ctx, email)
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, storageErr("find user", err)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		s.limiter.RecordFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}
	s.limiter.Reset(ctx, email)
	return &u, nil
}

// GetByID loads a user.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound("get user", err, ErrUserNotFound)
	}
	return &u, nil
}

// SetActive blocks (false) or unblocks (true) a user.
func (s *UserService) SetActive(ctx context.Context, id int64, active bool) (*model.User, error) {
	return s.update(ctx, id, func(tx *gorm.DB, u *model.User) error {
		if u.IsActive == active {
			return nil
		}
		u.IsActive = active
		return tx.Model(&model.User{}).Where("id = ?", id).Update("is_active", active).Error
	})
}

// SetRole changes a user's role.
func (s *UserService) SetRole(ctx context.Context, id int64, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	return s.update(ctx, id, func(tx *gorm.DB, u *model.User) error {
		if u.Role == role {
			return nil
		}
		u.Role = role
		return tx.Model(&model.User{}).Where("id = ?", id).Update("role", role).Error
	})
}

func (s *UserService) update(ctx context.Context, id int64, fn func(tx *gorm.DB, u *model.User) error) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			return notFound("get user", err, ErrUserNotFound)
		}
		if err := fn(tx, &u); err != nil {
			return storageErr("update user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AdjustBalance adds the deltas to a user's coins and crystals in one
// statement. A result below zero in either currency fails with
// ErrInsufficientFunds and changes nothing.
func (s *UserService) AdjustBalance(ctx context.Context, id int64, coins, crystals int64) (*model.User, error) {
	if coins == 0 && crystals == 0 {
		return s.GetByID(ctx, id)
	}
	res := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND coins + ? >= 0 AND crystals + ? >= 0", id, coins, crystals).
		Updates(map[string]interface{}{
			"coins":    gorm.Expr("coins + ?", coins),
			"crystals": gorm.Expr("crystals + ?", crystals),
		})
	if res.Error != nil {
		return nil, storageErr("adjust balance", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientFunds
	}
	return s.GetByID(ctx, id)
}
