// Package core 组装 HTTP 服务器
package core

import (
	"net/http"
	"time"

	"github.com/anoixa/media-library/api/common"
	dirsHandler "github.com/anoixa/media-library/api/handler/dirs"
	mediaHandler "github.com/anoixa/media-library/api/handler/media"
	"github.com/anoixa/media-library/api/middleware"
	"github.com/anoixa/media-library/cache"
	"github.com/anoixa/media-library/config"
	"github.com/anoixa/media-library/database/repo/directories"
	mediarepo "github.com/anoixa/media-library/database/repo/media"
	mediasvc "github.com/anoixa/media-library/internal/media"
	"github.com/anoixa/media-library/internal/mediatree"
	"github.com/anoixa/media-library/internal/presenter"
	"github.com/anoixa/media-library/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var startTime = time.Now()

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	DB             *gorm.DB
	Cache          cache.Cache
	StorageFactory *storage.Factory
	Store          *storage.ContentStore
	MediaRepo      mediarepo.Repository
	DirectoryRepo  *directories.Repository
	MediaService   *mediasvc.Service
	Tree           *mediatree.Tree
	Presenter      *presenter.Presenter
}

// setupRouter 配置 gin 路由
func setupRouter(deps *ServerDependencies) (*gin.Engine, func()) {
	cfg := config.Get()

	// 仅开发版本输出 gin 请求日志
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if !config.IsProduction() {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.SetTrustedProxies(nil)
	router.MaxMultipartMemory = int64(cfg.UploadMaxSizeMB) << 20

	// 并发上限，避免大量上传占满内存
	concurrencyLimiter := middleware.NewConcurrencyLimiter(100)
	router.Use(concurrencyLimiter.Middleware())
	router.Use(middleware.Metrics())

	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, 10*time.Minute)
	mediaRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitMediaRPS, cfg.RateLimitMediaBurst, 10*time.Minute)
	cleanup := func() {
		apiRateLimiter.StopCleanup()
		mediaRateLimiter.StopCleanup()
	}

	router.GET("/health", func(c *gin.Context) {
		health := gin.H{
			"status":  "ok",
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"version": config.Version,
			"checks": gin.H{
				"database": checkDatabaseHealth(deps.DB),
				"storage":  checkStorageHealth(deps.StorageFactory),
			},
		}
		httpStatus := http.StatusOK
		for _, result := range health["checks"].(gin.H) {
			if s, ok := result.(string); ok && s != "ok" {
				httpStatus = http.StatusServiceUnavailable
				break
			}
		}
		c.JSON(httpStatus, health)
	})
	router.GET("/version", func(c *gin.Context) {
		common.RespondSuccess(c, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})
	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, middleware.GetMetrics())
	})

	media := mediaHandler.NewHandler(deps.MediaRepo, deps.MediaService, deps.Tree, deps.Presenter, deps.Store, cfg)
	dirs := dirsHandler.NewHandler(deps.DirectoryRepo, deps.Tree)

	// 按逻辑路径访问文件内容
	serveGroup := router.Group("/media")
	serveGroup.Use(mediaRateLimiter.Middleware())
	{
		serveGroup.GET("/*path", media.Serve)
	}

	apiGroup := router.Group("/api/v1")
	apiGroup.Use(apiRateLimiter.Middleware())
	apiGroup.Use(func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	})
	{
		mediaGroup := apiGroup.Group("/media")
		{
			mediaGroup.POST("", media.Upload)                  // POST   /api/v1/media
			mediaGroup.GET("", media.List)                     // GET    /api/v1/media
			mediaGroup.GET("/:id", media.Get)                  // GET    /api/v1/media/{id}
			mediaGroup.GET("/:id/versions", media.Versions)    // GET    /api/v1/media/{id}/versions
			mediaGroup.GET("/:id/render", media.Render)        // GET    /api/v1/media/{id}/render
			mediaGroup.POST("/:id/edit", media.Edit)           // POST   /api/v1/media/{id}/edit
			mediaGroup.PATCH("/:id", media.Update)             // PATCH  /api/v1/media/{id}
			mediaGroup.DELETE("/:id", media.Delete)            // DELETE /api/v1/media/{id}
			mediaGroup.POST("/:id/restore", media.Restore)     // POST   /api/v1/media/{id}/restore
		}

		apiGroup.GET("/resolve", media.Resolve) // GET /api/v1/resolve?path=

		dirGroup := apiGroup.Group("/directories")
		{
			dirGroup.POST("", dirs.Create)       // POST   /api/v1/directories
			dirGroup.GET("", dirs.List)          // GET    /api/v1/directories
			dirGroup.PATCH("/:id", dirs.Update)  // PATCH  /api/v1/directories/{id}
			dirGroup.DELETE("/:id", dirs.Delete) // DELETE /api/v1/directories/{id}
		}
	}

	return router, cleanup
}

// StartServer 创建 http.Server
func StartServer(deps *ServerDependencies) (*http.Server, func()) {
	cfg := config.Get()
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
