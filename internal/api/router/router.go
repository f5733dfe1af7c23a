package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-roster/backend/config"
	"campus-roster/backend/internal/api/handler"
	"campus-roster/backend/internal/api/middleware"
	"campus-roster/backend/internal/model"
	"campus-roster/backend/pkg/jwt"
	"campus-roster/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证；登录/注册限流防爆破）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/register", h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetMe)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 单元模块（协调员管理，成员只读）
			units := authorized.Group("/units")
			{
				units.GET("", h.Unit.ListUnits)
				units.GET("/:id", h.Unit.GetUnit)
				units.POST("", middleware.RoleAuth(model.RoleUnitCoordinator), h.Unit.CreateUnit)
				units.PUT("/:id", middleware.RoleAuth(model.RoleUnitCoordinator), h.Unit.UpdateUnit)

				units.POST("/:id/facilitators", middleware.RoleAuth(model.RoleUnitCoordinator), h.Unit.AddFacilitator)
				units.DELETE("/:id/facilitators/:uid", middleware.RoleAuth(model.RoleUnitCoordinator), h.Unit.RemoveFacilitator)

				units.POST("/:id/modules", middleware.RoleAuth(model.RoleUnitCoordinator), h.Unit.CreateModule)
				units.POST("/:id/sessions", middleware.RoleAuth(model.RoleUnitCoordinator), h.Unit.CreateSession)

				// 发布状态机
				units.POST("/:id/publish", middleware.RoleAuth(model.RoleUnitCoordinator), h.Publication.Publish)
				units.POST("/:id/unpublish", middleware.RoleAuth(model.RoleUnitCoordinator), h.Publication.Unpublish)
				units.POST("/:id/republish", middleware.RoleAuth(model.RoleUnitCoordinator), h.Publication.Republish)

				// 技能（成员维护自己的等级）
				units.GET("/:id/skills", h.Skill.GetUnitSkills)

				// 导出
				units.GET("/:id/export", h.Export.ExportUnitSchedule)
			}

			// 课节模块
			sessions := authorized.Group("/sessions")
			{
				sessions.PUT("/:id", middleware.RoleAuth(model.RoleUnitCoordinator), h.Unit.UpdateSession)
				sessions.DELETE("/:id", middleware.RoleAuth(model.RoleUnitCoordinator), h.Unit.DeleteSession)
				sessions.GET("/:id/candidates", middleware.RoleAuth(model.RoleUnitCoordinator), h.Unit.GetSessionCandidates)
				sessions.GET("/:id/assignments", h.Assignment.ListBySession)
			}

			// 指派模块
			assignments := authorized.Group("/assignments")
			{
				assignments.POST("", middleware.RoleAuth(model.RoleUnitCoordinator), h.Assignment.Assign)
				assignments.DELETE("/:id", middleware.RoleAuth(model.RoleUnitCoordinator), h.Assignment.Unassign)
				assignments.POST("/bulk", middleware.RoleAuth(model.RoleUnitCoordinator), h.Assignment.BulkAssign)
				assignments.POST("/check", h.Assignment.CheckAvailability)
			}

			// 换班模块
			swaps := authorized.Group("/swap-requests")
			{
				swaps.POST("", h.Swap.RequestSwap)
				swaps.GET("", h.Swap.ListMySwaps)
				swaps.GET("/:id", h.Swap.GetSwap)
				swaps.POST("/:id/respond", h.Swap.RespondSwap)
			}

			// 不可用时段模块
			unavailability := authorized.Group("/unavailability")
			{
				unavailability.GET("", h.Unavailability.List)
				unavailability.POST("", h.Unavailability.Create)
				unavailability.PUT("/:id", h.Unavailability.Update)
				unavailability.DELETE("/:id", h.Unavailability.Delete)
				unavailability.POST("/recurring", h.Unavailability.GenerateRecurring)
				unavailability.DELETE("/recurring/:groupId", h.Unavailability.DeleteRecurringGroup)
			}

			// 技能模块
			authorized.PUT("/skills", h.Skill.UpsertSkills)

			// 个人日历导出
			authorized.GET("/export/my-calendar", h.Export.ExportMyICS)
		}
	}

	return r
}
