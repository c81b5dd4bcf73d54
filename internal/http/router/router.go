package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/grantwriter-backend/internal/config"
	"github.com/ignatzorin/grantwriter-backend/internal/http/middleware"
	"github.com/ignatzorin/grantwriter-backend/internal/infrastructure/metrics"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/handler"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/rpc"
)

// Handlers собирает всё, что монтируется в роутер.
type Handlers struct {
	Auth       *handler.AuthHandler
	Proposal   *handler.ProposalHandler
	Export     *handler.ExportHandler
	Attachment *handler.AttachmentHandler
	WS         *handler.WSHandler
	Health     *handler.HealthHandler
	RPC        *rpc.Server
	Tokens     middleware.AccessTokenParser
	Metrics    *metrics.Metrics
}

func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(h.Metrics))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod, middleware.ByClientIP))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
	}

	// WebSocket авторизуется токеном из query, поэтому вне защищённой группы.
	api.GET("/ws", h.WS.Handle)
	// RPC несёт токен в аргументах каждого вызова.
	api.POST("/rpc", middleware.RateLimitMiddleware(cfg.GenerationRateLimit, cfg.RateLimitPeriod, middleware.ByClientIP), h.RPC.Handle)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(h.Tokens))
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod, middleware.ByUser))
	{
		protected.GET("/auth/me", h.Auth.Me)
		protected.GET("/stats/:ownerId", middleware.UUIDValidator("ownerId"), h.Proposal.Stats)

		proposals := protected.Group("/proposals")
		{
			proposals.POST("", h.Proposal.Create)
			proposals.PUT("/:id", middleware.UUIDValidator("id"), h.Proposal.Update)

			proposals.GET("/:ownerId", middleware.UUIDValidator("ownerId"), h.Proposal.List)
			proposals.GET("/:ownerId/:id", middleware.UUIDValidator("ownerId", "id"), h.Proposal.Get)
			proposals.GET("/:ownerId/:id/draft", middleware.UUIDValidator("ownerId", "id"), h.Proposal.Draft)
			proposals.GET("/:ownerId/:id/export", middleware.UUIDValidator("ownerId", "id"), h.Export.Export)
			proposals.DELETE("/:ownerId/:id", middleware.UUIDValidator("ownerId", "id"), h.Proposal.Delete)

			proposals.GET("/:ownerId/:id/attachments", middleware.UUIDValidator("ownerId", "id"), h.Attachment.List)
			proposals.POST("/:id/attachments", middleware.UUIDValidator("id"), h.Attachment.Upload)
			proposals.DELETE("/:ownerId/:id/attachments/:attachmentId",
				middleware.UUIDValidator("ownerId", "id", "attachmentId"), h.Attachment.Delete)
		}

		// Генерация дорогая: отдельный лимит на пользователя поверх общего.
		generation := protected.Group("")
		generation.Use(middleware.RateLimitMiddleware(cfg.GenerationRateLimit, cfg.RateLimitPeriod, middleware.ByUser))
		{
			generation.POST("/proposals/:id/generate", h.Proposal.Generate)
			generation.POST("/proposals/:id/edit", middleware.UUIDValidator("id"), h.Proposal.Edit)
			generation.POST("/reports/generate", h.Proposal.GenerateFromText)
		}
	}

	return r
}
