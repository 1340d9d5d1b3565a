package service

import (
	"errors"
	"fmt"

	"github.com/arenaforge/gameapi/db"
	"github.com/arenaforge/gameapi/model"
	"gorm.io/gorm"
)

var (
	ErrDuplicateUsername      = errors.New("username already taken")
	ErrDuplicateEmail         = errors.New("email already registered")
	ErrDuplicateCharacterName = errors.New("character name already exists")
	ErrDuplicateEquipmentName = errors.New("equipment name already exists")
	ErrAlreadyOwned           = errors.New("user already owns this character")
	ErrUserNotFound           = errors.New("user not found")
	ErrCharacterNotFound      = errors.New("character not found")
	ErrEquipmentNotFound      = errors.New("equipment not found")
	ErrInstanceNotFound       = errors.New("equipment instance not found")
	ErrNotOwned               = errors.New("character not owned")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrTooManyAttempts        = errors.New("too many failed login attempts")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidRole            = errors.New("invalid role")
	ErrInvalidUsername        = errors.New("invalid username")
	ErrInvalidCategory        = errors.New("invalid equipment category")

	// ErrStorageUnavailable wraps persistence failures that are not a
	// validation outcome (connection loss, timeouts, driver errors).
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

// notFound maps gorm's not-found to kind and anything else to a storage error.
func notFound(op string, err error, kind error) error {
	if db.IsNotFound(err) {
		return kind
	}
	return storageErr(op, err)
}

// requireUser checks that a user row exists within tx.
func requireUser(tx *gorm.DB, userID int64) error {
	var n int64
	if err := tx.Model(&model.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return storageErr("lookup user", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
