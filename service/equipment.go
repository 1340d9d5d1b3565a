package service

import (
	"context"
	"strings"

	"github.com/arenaforge/gameapi/db"
	"github.com/arenaforge/gameapi/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	initialLevel      = 1
	initialDurability = 100
)

// TemplateInput carries the fields of a new equipment template.
type TemplateInput struct {
	Name        string                  `json:"name" binding:"required,min=1,max=50"`
	Category    model.EquipmentCategory `json:"category" binding:"required"`
	Description string                  `json:"description" binding:"max=255"`
	HealthBonus int                     `json:"health_bonus"`
	DamageBonus int                     `json:"damage_bonus"`
	SpeedBonus  float64                 `json:"speed_bonus"`
}

// EquipmentService manages equipment templates and per-user instances.
type EquipmentService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewEquipmentService creates an EquipmentService.
func NewEquipmentService(db *gorm.DB, logger *zap.Logger) *EquipmentService {
	return &EquipmentService{db: db, logger: logger}
}

// CreateTemplate adds an equipment template. Names are unique.
func (s *EquipmentService) CreateTemplate(ctx context.Context, in TemplateInput) (*model.EquipmentTemplate, error) {
	if !in.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	t := &model.EquipmentTemplate{
		Name:        strings.TrimSpace(in.Name),
		Category:    in.Category,
		Description: in.Description,
		HealthBonus: in.HealthBonus,
		DamageBonus: in.DamageBonus,
		SpeedBonus:  in.SpeedBonus,
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateEquipmentName
		}
		return nil, storageErr("create template", err)
	}
	s.logger.Info("equipment template created", zap.Int64("equipment_id", t.ID), zap.String("name", t.Name))
	return t, nil
}

func (s *EquipmentService) ListTemplates(ctx context.Context) ([]model.EquipmentTemplate, error) {
	var out []model.EquipmentTemplate
	if err := s.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, storageErr("list templates", err)
	}
	return out, nil
}

// Grant creates a new unequipped instance of a template for a user.
// Users may hold any number of instances of the same template.
func (s *EquipmentService) Grant(ctx context.Context, userID, templateID int64) (*model.EquipmentInstance, error) {
	var inst model.EquipmentInstance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		var t model.EquipmentTemplate
		if err := tx.First(&t, templateID).Error; err != nil {
			return notFound("get template", err, ErrEquipmentNotFound)
		}
		inst = model.EquipmentInstance{
			UserID:     userID,
			TemplateID: templateID,
			Level:      initialLevel,
			Durability: initialDurability,
		}
		if err := tx.Create(&inst).Error; err != nil {
			return storageErr("grant equipment", err)
		}
		inst.Template = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("equipment granted",
		zap.Int64("user_id", userID),
		zap.Int64("equipment_id", templateID),
		zap.Int64("instance_id", inst.ID))
	return &inst, nil
}

// Instances returns a user's instances with their templates loaded.
func (s *EquipmentService) Instances(ctx context.Context, userID int64) ([]model.EquipmentInstance, error) {
	tx := s.db.WithContext(ctx)
	if err := requireUser(tx, userID); err != nil {
		return nil, err
	}
	var out []model.EquipmentInstance
	if err := tx.Preload("Template").Where("user_id = ?", userID).Order("id").Find(&out).Error; err != nil {
		return nil, storageErr("list instances", err)
	}
	return out, nil
}

func (s *EquipmentService) Equip(ctx context.Context, userID, instanceID int64) (*model.EquipmentInstance, error) {
	return s.setEquipped(ctx, userID, instanceID, true)
}

func (s *EquipmentService) Unequip(ctx context.Context, userID, instanceID int64) (*model.EquipmentInstance, error) {
	return s.setEquipped(ctx, userID, instanceID, false)
}

// setEquipped flips is_equipped on an instance the user owns. An instance
// owned by someone else is reported as not found.
func (s *EquipmentService) setEquipped(ctx context.Context, userID, instanceID int64, equipped bool) (*model.EquipmentInstance, error) {
	var inst model.EquipmentInstance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Template").
			Where("id = ? AND user_id = ?", instanceID, userID).
			First(&inst).Error
		if err != nil {
			return notFound("get instance", err, ErrInstanceNotFound)
		}
		if inst.IsEquipped == equipped {
			return nil
		}
		err = tx.Model(&model.EquipmentInstance{}).
			Where("id = ?", instanceID).
			Update("is_equipped", equipped).Error
		if err != nil {
			return storageErr("update instance", err)
		}
		inst.IsEquipped = equipped
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// Bonuses sums the template bonuses of a user's equipped instances.
func (s *EquipmentService) Bonuses(ctx context.Context, userID int64) (model.Bonuses, error) {
	instances, err := s.Instances(ctx, userID)
	if err != nil {
		return model.Bonuses{}, err
	}
	return model.SumBonuses(instances), nil
}
