package service

import (
	"context"
	"strings"

	"github.com/arenaforge/gameapi/db"
	"github.com/arenaforge/gameapi/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CharacterInput carries the fields of a new catalog character.
type CharacterInput struct {
	Name       string  `json:"name" binding:"required,min=2,max=100"`
	BaseHealth int     `json:"base_health" binding:"min=10,max=500"`
	BaseDamage int     `json:"base_damage" binding:"min=10,max=500"`
	BaseSpeed  float64 `json:"base_speed" binding:"min=10,max=500"`
}

// CharacterService manages the character catalog and user ownership.
type CharacterService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCharacterService creates a CharacterService.
func NewCharacterService(db *gorm.DB, logger *zap.Logger) *CharacterService {
	return &CharacterService{db: db, logger: logger}
}

// Create adds a catalog character. Names are unique.
func (s *CharacterService) Create(ctx context.Context, in CharacterInput) (*model.Character, error) {
	c := &model.Character{
		Name:       strings.TrimSpace(in.Name),
		BaseHealth: in.BaseHealth,
		BaseDamage: in.BaseDamage,
		BaseSpeed:  in.BaseSpeed,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateCharacterName
		}
		return nil, storageErr("create character", err)
	}
	s.logger.Info("character created", zap.Int64("character_id", c.ID), zap.String("name", c.Name))
	return c, nil
}

// List returns the whole catalog ordered by id.
func (s *CharacterService) List(ctx context.Context) ([]model.Character, error) {
	var out []model.Character
	if err := s.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, storageErr("list characters", err)
	}
	return out, nil
}

func (s *CharacterService) GetByID(ctx context.Context, id int64) (*model.Character, error) {
	var c model.Character
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound("get character", err, ErrCharacterNotFound)
	}
	return &c, nil
}

// Assign gives a character to a user at level 1. The composite key on
// user_characters makes a second assignment fail with ErrAlreadyOwned.
func (s *CharacterService) Assign(ctx context.Context, userID, characterID int64) (*model.UserCharacter, error) {
	var uc model.UserCharacter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		var c model.Character
		if err := tx.First(&c, characterID).Error; err != nil {
			return notFound("get character", err, ErrCharacterNotFound)
		}
		uc = model.UserCharacter{UserID: userID, CharacterID: characterID, Level: 1}
		if err := tx.Create(&uc).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return ErrAlreadyOwned
			}
			return storageErr("assign character", err)
		}
		uc.Character = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("character assigned", zap.Int64("user_id", userID), zap.Int64("character_id", characterID))
	return &uc, nil
}

// ListForUser returns the catalog characters a user owns, ordered by id.
func (s *CharacterService) ListForUser(ctx context.Context, userID int64) ([]model.Character, error) {
	tx := s.db.WithContext(ctx)
	if err := requireUser(tx, userID); err != nil {
		return nil, err
	}
	var out []model.Character
	err := tx.Joins("JOIN user_characters uc ON uc.character_id = characters.id").
		Where("uc.user_id = ?", userID).
		Order("characters.id").
		Find(&out).Error
	if err != nil {
		return nil, storageErr("list user characters", err)
	}
	return out, nil
}

// Ownerships returns a user's ownership rows with their characters loaded.
func (s *CharacterService) Ownerships(ctx context.Context, userID int64) ([]model.UserCharacter, error) {
	tx := s.db.WithContext(ctx)
	if err := requireUser(tx, userID); err != nil {
		return nil, err
	}
	var out []model.UserCharacter
	err := tx.Preload("Character").
		Where("user_id = ?", userID).
		Order("character_id").
		Find(&out).Error
	if err != nil {
		return nil, storageErr("list ownerships", err)
	}
	return out, nil
}

// Activate marks one owned character active and clears the flag on the
// user's other characters.
func (s *CharacterService) Activate(ctx context.Context, userID, characterID int64) (*model.UserCharacter, error) {
	var uc model.UserCharacter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Character").
			Where("user_id = ? AND character_id = ?", userID, characterID).
			First(&uc).Error
		if err != nil {
			return notFound("get ownership", err, ErrNotOwned)
		}
		err = tx.Model(&model.UserCharacter{}).
			Where("user_id = ? AND character_id <> ?", userID, characterID).
			Update("is_active", false).Error
		if err != nil {
			return storageErr("deactivate characters", err)
		}
		err = tx.Model(&model.UserCharacter{}).
			Where("user_id = ? AND character_id = ?", userID, characterID).
			Update("is_active", true).Error
		if err != nil {
			return storageErr("activate character", err)
		}
		uc.IsActive = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &uc, nil
}
