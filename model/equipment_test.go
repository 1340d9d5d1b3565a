package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSumBonuses_OnlyEquipped(t *testing.T) {
	dagger := &EquipmentTemplate{DamageBonus: 5, SpeedBonus: 0.5}
	hammer := &EquipmentTemplate{DamageBonus: 100, HealthBonus: 30}
	instances := []EquipmentInstance{
		{IsEquipped: true, Template: dagger},
		{IsEquipped: false, Template: hammer},
	}

	b := SumBonuses(instances)
	assert.Equal(t, 5, b.Damage)
	assert.Equal(t, 0, b.Health)
	assert.InDelta(t, 0.5, b.Speed, 1e-9)
}

func TestSumBonuses_SameTemplateTwice(t *testing.T) {
	ring := &EquipmentTemplate{HealthBonus: 10, SpeedBonus: 1.25}
	b := SumBonuses([]EquipmentInstance{
		{IsEquipped: true, Template: ring},
		{IsEquipped: true, Template: ring},
	})
	assert.Equal(t, 20, b.Health)
	assert.InDelta(t, 2.5, b.Speed, 1e-9)
}

func TestSumBonuses_Empty(t *testing.T) {
	assert.Equal(t, Bonuses{}, SumBonuses(nil))
}

func TestSumBonuses_MissingTemplateSkipped(t *testing.T) {
	b := SumBonuses([]EquipmentInstance{{IsEquipped: true}})
	assert.Equal(t, Bonuses{}, b)
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleModerator, RoleAdmin, RoleSuperAdmin} {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("root").Valid())
	assert.False(t, Role("").Valid())
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryWeapon.Valid())
	assert.True(t, CategoryArmor.Valid())
	assert.True(t, CategoryRing.Valid())
	assert.False(t, EquipmentCategory("boots").Valid())
}
