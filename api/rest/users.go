package rest

import (
	"net/http"

	"github.com/arenaforge/gameapi/auth"
	mw "github.com/arenaforge/gameapi/middleware"
	"github.com/arenaforge/gameapi/model"
	"github.com/arenaforge/gameapi/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler handles account REST endpoints.
type UserHandler struct {
	users     *service.UserService
	equipment *service.EquipmentService
	tokens    *auth.TokenManager
	audit     Auditor
	logger    *zap.Logger
}

// NewUserHandler creates a UserHandler. audit may be nil.
func NewUserHandler(users *service.UserService, equipment *service.EquipmentService, tokens *auth.TokenManager, a Auditor, logger *zap.Logger) *UserHandler {
	if a == nil {
		a = nopAuditor{}
	}
	return &UserHandler{users: users, equipment: equipment, tokens: tokens, audit: a, logger: logger}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=8,max=20"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /api/users/register.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "user created",
		"user_id":  u.ID,
		"username": u.Username,
		"email":    u.Email,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/users/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	token, err := h.tokens.Issue(u.ID, u.Username)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int64(h.tokens.TTL().Seconds()),
	})
}

type meResponse struct {
	*model.User
	Bonuses model.Bonuses `json:"bonuses"`
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(c *gin.Context) {
	u := mw.CurrentUser(c)
	b, err := h.equipment.Bonuses(c.Request.Context(), u.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, meResponse{User: u, Bonuses: b})
}

// Block handles POST /api/users/:id/block.
func (h *UserHandler) Block(c *gin.Context) { h.setActive(c, false, "user.block") }

// Unblock handles POST /api/users/:id/unblock.
func (h *UserHandler) Unblock(c *gin.Context) { h.setActive(c, true, "user.unblock") }

func (h *UserHandler) setActive(c *gin.Context, active bool, action string) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.users.SetActive(c.Request.Context(), id, active)
	record(h.audit, c, action, target("user", id), nil, err)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type roleRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

// SetRole handles PUT /api/users/:id/role.
func (h *UserHandler) SetRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.SetRole(c.Request.Context(), id, req.Role)
	record(h.audit, c, "user.role", target("user", id), req, err)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type balanceRequest struct {
	Coins    int64 `json:"coins"`
	Crystals int64 `json:"crystals"`
}

// AdjustBalance handles POST /api/users/:id/balance. The amounts are deltas.
func (h *UserHandler) AdjustBalance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req balanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.AdjustBalance(c.Request.Context(), id, req.Coins, req.Crystals)
	record(h.audit, c, "user.balance", target("user", id), req, err)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
