package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"minelog/backend/config"
	"minelog/backend/internal/api/handler"
	"minelog/backend/internal/api/middleware"
	"minelog/backend/pkg/jwt"
	"minelog/backend/pkg/metrics"
	"minelog/backend/pkg/redis"
)

const (
	// maxBodyBytes 请求体上限，覆盖 ICS 日历上传场景
	maxBodyBytes = 2 << 20
	// 认证类接口的暴力尝试限速
	authRateLimit  = 10
	authRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, mtr *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(mtr))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(mtr.Handler()))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，带限速）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, authRateLimit, authRateWindow))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/register", h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.GET("/invite/:code", h.Auth.ValidateInvite)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)
			authorized.POST("/auth/invite", middleware.RoleAuth("admin", "supervisor"), h.Auth.GenerateInvite)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("", middleware.RoleAuth("admin", "supervisor"), h.User.ListUsers)
				users.GET("/:id", middleware.RoleAuth("admin", "supervisor"), h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser) // admin 或本人（Service 层鉴权）
				users.DELETE("/:id", middleware.RoleAuth("admin"), h.User.DeleteUser)
				users.PUT("/:id/role", middleware.RoleAuth("admin"), h.User.AssignRole)
				users.POST("/:id/reset-password", middleware.RoleAuth("admin"), h.User.ResetPassword)
			}

			// 矿区模块
			sites := authorized.Group("/sites")
			{
				sites.GET("", h.Site.ListSites)
				sites.GET("/:id", h.Site.GetSite)
				sites.POST("", middleware.RoleAuth("admin"), h.Site.CreateSite)
				sites.PUT("/:id", middleware.RoleAuth("admin"), h.Site.UpdateSite)
				sites.DELETE("/:id", middleware.RoleAuth("admin"), h.Site.DeleteSite)
				sites.GET("/:id/members", middleware.RoleAuth("admin", "supervisor"), h.Site.GetMembers)
			}

			// 工友关系模块
			connections := authorized.Group("/connections")
			{
				connections.POST("", h.Connection.RequestConnection)
				connections.GET("", h.Connection.ListConnections)
				connections.GET("/pending", h.Connection.ListPendingConnections)
				connections.PUT("/:id", h.Connection.RespondConnection)
				connections.DELETE("/:id", h.Connection.RemoveConnection)
			}

			// 班次模块
			shifts := authorized.Group("/shifts")
			{
				shifts.POST("", h.Shift.CreateShift)
				shifts.GET("", h.Shift.ListShifts)
				shifts.GET("/:id", h.Shift.GetShift)
				shifts.PUT("/:id", h.Shift.UpdateShift)
				shifts.DELETE("/:id", h.Shift.DeleteShift)
				shifts.POST("/:id/records", h.Shift.AddRecord)
				shifts.PUT("/:id/records/:recordId", h.Shift.UpdateRecord)
				shifts.DELETE("/:id/records/:recordId", h.Shift.DeleteRecord)
			}

			// 统计模块
			stats := authorized.Group("/stats")
			{
				stats.GET("/summary", h.Stats.GetSummary)
				stats.GET("/series", h.Stats.GetSeries)
				stats.GET("/network", h.Stats.GetNetwork)
				stats.GET("/metrics", h.Stats.ListMetrics)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/shifts", h.Export.ExportShifts)
			}

			// 排班日历导入模块
			roster := authorized.Group("/roster")
			{
				roster.POST("/import", h.Roster.ImportRoster)
			}
		}
	}

	return r
}
