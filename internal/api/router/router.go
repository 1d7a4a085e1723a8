package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"studytrack/backend/config"
	"studytrack/backend/internal/api/handler"
	"studytrack/backend/internal/api/middleware"
	"studytrack/backend/internal/model"
	"studytrack/backend/pkg/jwt"
	"studytrack/backend/pkg/metrics"
	"studytrack/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时黑名单与限流均降级
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	if cfg.Metrics.Enabled {
		r.Use(metrics.Middleware())
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 避免把 nil *redis.Client 装进接口
	var checker middleware.TokenChecker
	if rdb != nil {
		checker = rdb
	}
	limiter := middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		auth.Use(limiter)
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, checker, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/profile", h.Auth.GetProfile)
			authorized.PUT("/auth/profile", h.Auth.UpdateProfile)

			// 教师端
			educator := authorized.Group("/educator")
			educator.Use(middleware.ProfileAuth(string(model.ProfileEducator)))
			{
				educator.GET("/students", h.Educator.ListStudents)
			}

			// 学习模块
			modules := authorized.Group("/modules")
			{
				modules.GET("", h.Module.ListModules)
				modules.POST("", h.Module.CreateModule)
				modules.GET("/calendar.ics", h.Module.ExportCalendar)
				modules.GET("/:id", h.Module.GetModule)
				modules.PUT("/:id", h.Module.UpdateModule)
				modules.PATCH("/:id/lessons", h.Module.AdjustLessons)
				modules.DELETE("/:id", h.Module.DeleteModule)
			}

			// 证书模块
			certificates := authorized.Group("/certificates")
			{
				certificates.GET("", h.Certificate.ListCertificates)
				certificates.POST("", h.Certificate.IssueCertificate)
				certificates.GET("/export", h.Certificate.ExportCertificates)
				certificates.DELETE("/:id", h.Certificate.DeleteCertificate)
			}

			// 学期模块
			semesters := authorized.Group("/semesters")
			{
				semesters.GET("", h.Semester.ListSemesters)
				semesters.POST("", h.Semester.CreateSemester)
				semesters.GET("/:id", h.Semester.GetSemester)
				semesters.PUT("/:id", h.Semester.UpdateSemester)
				semesters.DELETE("/:id", h.Semester.DeleteSemester)
			}
		}
	}

	return r
}
