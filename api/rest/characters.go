package rest

import (
	"net/http"

	mw "github.com/arenaforge/gameapi/middleware"
	"github.com/arenaforge/gameapi/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CharacterHandler handles the character catalog and ownership endpoints.
type CharacterHandler struct {
	chars  *service.CharacterService
	audit  Auditor
	logger *zap.Logger
}

// NewCharacterHandler creates a CharacterHandler. audit may be nil.
func NewCharacterHandler(chars *service.CharacterService, a Auditor, logger *zap.Logger) *CharacterHandler {
	if a == nil {
		a = nopAuditor{}
	}
	return &CharacterHandler{chars: chars, audit: a, logger: logger}
}

// List handles GET /api/characters.
func (h *CharacterHandler) List(c *gin.Context) {
	list, err := h.chars.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create handles POST /api/characters.
func (h *CharacterHandler) Create(c *gin.Context) {
	var req service.CharacterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ch, err := h.chars.Create(c.Request.Context(), req)
	var tgt string
	if ch != nil {
		tgt = target("character", ch.ID)
	}
	record(h.audit, c, "character.create", tgt, req, err)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

// Get handles GET /api/characters/:id.
func (h *CharacterHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, err := h.chars.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

// Assign handles POST /api/characters/:id/assign/:user_id.
func (h *CharacterHandler) Assign(c *gin.Context) {
	charID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	uc, err := h.chars.Assign(c.Request.Context(), userID, charID)
	record(h.audit, c, "character.assign", target("user", userID),
		gin.H{"character_id": charID}, err)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, uc)
}

// ListForUser handles GET /api/characters/user/:user_id.
func (h *CharacterHandler) ListForUser(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	list, err := h.chars.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Mine handles GET /api/users/me/characters.
func (h *CharacterHandler) Mine(c *gin.Context) {
	list, err := h.chars.Ownerships(c.Request.Context(), mw.CurrentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Activate handles POST /api/users/me/characters/:id/activate.
func (h *CharacterHandler) Activate(c *gin.Context) {
	charID, ok := pathID(c, "id")
	if !ok {
		return
	}
	uc, err := h.chars.Activate(c.Request.Context(), mw.CurrentUserID(c), charID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, uc)
}
