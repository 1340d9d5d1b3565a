package rest

import (
	"net/http"

	mw "github.com/arenaforge/gameapi/middleware"
	"github.com/arenaforge/gameapi/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EquipmentHandler handles equipment templates, instances and bonuses.
type EquipmentHandler struct {
	equipment *service.EquipmentService
	audit     Auditor
	logger    *zap.Logger
}

// NewEquipmentHandler creates an EquipmentHandler. audit may be nil.
func NewEquipmentHandler(equipment *service.EquipmentService, a Auditor, logger *zap.Logger) *EquipmentHandler {
	if a == nil {
		a = nopAuditor{}
	}
	return &EquipmentHandler{equipment: equipment, audit: a, logger: logger}
}

// ListTemplates handles GET /api/equipment.
func (h *EquipmentHandler) ListTemplates(c *gin.Context) {
	list, err := h.equipment.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateTemplate handles POST /api/equipment.
func (h *EquipmentHandler) CreateTemplate(c *gin.Context) {
	var req service.TemplateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tpl, err := h.equipment.CreateTemplate(c.Request.Context(), req)
	var tgt string
	if tpl != nil {
		tgt = target("equipment", tpl.ID)
	}
	record(h.audit, c, "equipment.create", tgt, req, err)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

// Grant handles POST /api/equipment/:id/grant/:user_id.
func (h *EquipmentHandler) Grant(c *gin.Context) {
	tplID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	inst, err := h.equipment.Grant(c.Request.Context(), userID, tplID)
	record(h.audit, c, "equipment.grant", target("user", userID),
		gin.H{"equipment_id": tplID}, err)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, inst)
}

// Mine handles GET /api/users/me/equipment.
func (h *EquipmentHandler) Mine(c *gin.Context) {
	list, err := h.equipment.Instances(c.Request.Context(), mw.CurrentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Equip handles POST /api/users/me/equipment/:id/equip.
func (h *EquipmentHandler) Equip(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	inst, err := h.equipment.Equip(c.Request.Context(), mw.CurrentUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, inst)
}

// Unequip handles POST /api/users/me/equipment/:id/unequip.
func (h *EquipmentHandler) Unequip(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	inst, err := h.equipment.Unequip(c.Request.Context(), mw.CurrentUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, inst)
}

// Bonuses handles GET /api/users/me/bonuses.
func (h *EquipmentHandler) Bonuses(c *gin.Context) {
	b, err := h.equipment.Bonuses(c.Request.Context(), mw.CurrentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
