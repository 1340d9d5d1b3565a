package rest

import (
	"context"
	"net/http"

	"github.com/arenaforge/gameapi/access"
	"github.com/arenaforge/gameapi/auth"
	mw "github.com/arenaforge/gameapi/middleware"
	"github.com/arenaforge/gameapi/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Users      *service.UserService
	Characters *service.CharacterService
	Equipment  *service.EquipmentService
	Tokens     *auth.TokenManager
	Chain      *access.Chain
	Audit      Auditor
	Logger     *zap.Logger

	RateLimitRPS   float64
	RateLimitBurst int
	// AdminAllowlist limits the moderator and admin routes to these
	// addresses or CIDR prefixes. Empty allows all.
	AdminAllowlist []string
	// TrustedProxies are the peers whose forwarding headers set the client
	// IP. Empty trusts none.
	TrustedProxies []string
}

// NewRouter builds the gin engine with global middleware and all routes.
// ctx bounds background work started by middleware.
func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	log := d.Logger
	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		log.Warn("invalid trusted proxies, trusting none", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(mw.TraceID(), mw.Logger(log), mw.Recovery(log))
	if d.RateLimitRPS > 0 {
		r.Use(mw.RateLimit(ctx, rate.Limit(d.RateLimitRPS), d.RateLimitBurst))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	userH := NewUserHandler(d.Users, d.Equipment, d.Tokens, d.Audit, log)
	charH := NewCharacterHandler(d.Characters, d.Audit, log)
	equipH := NewEquipmentHandler(d.Equipment, d.Audit, log)

	active := mw.Authenticated(d.Chain, log)
	allow := mw.IPAllowlist(d.AdminAllowlist, log)
	moderator := mw.RequireRoles(d.Chain, access.ModeratorRoles, log)
	admin := mw.RequireRoles(d.Chain, access.AdminRoles, log)
	superAdmin := mw.RequireRoles(d.Chain, access.SuperAdminRoles, log)

	api := r.Group("/api")
	{
		usersG := api.Group("/users")
		usersG.POST("/register", userH.Register)
		usersG.POST("/login", userH.Login)

		meG := usersG.Group("/me", active)
		meG.GET("", userH.Me)
		meG.GET("/characters", charH.Mine)
		meG.POST("/characters/:id/activate", charH.Activate)
		meG.GET("/equipment", equipH.Mine)
		meG.POST("/equipment/:id/equip", equipH.Equip)
		meG.POST("/equipment/:id/unequip", equipH.Unequip)
		meG.GET("/bonuses", equipH.Bonuses)

		usersG.POST("/:id/block", allow, moderator, userH.Block)
		usersG.POST("/:id/unblock", allow, moderator, userH.Unblock)
		usersG.POST("/:id/balance", allow, admin, userH.AdjustBalance)
		usersG.PUT("/:id/role", allow, superAdmin, userH.SetRole)

		charsG := api.Group("/characters")
		charsG.GET("", charH.List)
		charsG.POST("", allow, admin, charH.Create)
		charsG.GET("/user/:user_id", charH.ListForUser)
		charsG.GET("/:id", charH.Get)
		charsG.POST("/:id/assign/:user_id", allow, admin, charH.Assign)

		equipG := api.Group("/equipment")
		equipG.GET("", equipH.ListTemplates)
		equipG.POST("", allow, admin, equipH.CreateTemplate)
		equipG.POST("/:id/grant/:user_id", allow, admin, equipH.Grant)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}
