package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/talentgate/assess-backend/internal/config"
	"github.com/talentgate/assess-backend/internal/handler"
	"github.com/talentgate/assess-backend/internal/middleware"
	"github.com/talentgate/assess-backend/internal/response"
	"github.com/talentgate/assess-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Assessment *handler.AssessmentHandler
	WS         *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── Assessment (Candidate JWT) ────────────────────────────────────
	assessment := router.Group("/api/v1/assessment")
	assessment.Use(middleware.RequireCandidateJWT(authService))
	{
		assessment.POST("/sessions", handlers.Assessment.StartSession)
		assessment.GET("/sessions/state", handlers.Assessment.GetState)
		assessment.GET("/sessions/result", handlers.Assessment.GetResult)
	}

	// ─── WebSocket (Candidate JWT via ?token=) ─────────────────────────
	wsGroup := router.Group("/ws/v1")
	wsGroup.Use(middleware.RequireCandidateWSAuth(authService))
	{
		wsGroup.GET("/assessment/stream", handlers.WS.AssessmentStream)
	}

	return router
}
