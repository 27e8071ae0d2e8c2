package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"quetzal/middleware"
	"quetzal/repository"
	"quetzal/services"
	"quetzal/storage"
	"quetzal/usecase"
)

type RouterDeps struct {
	Catalog   *usecase.Catalog
	Papers    *usecase.PaperService
	Auth      *usecase.AuthService
	Tokens    *services.TokenService
	Blacklist services.TokenBlacklist
	Backend   repository.CatalogBackend
	Files     *storage.FileStore
	Logger    *zap.Logger

	StaffEmail         string
	BrowseRequiresAuth bool
	CORSOrigins        []string
	MaxJSONBytes       int64
	Watch              WatchSettings
}

// NewRouter wires the catalog API and the file gateway onto one engine.
func NewRouter(d RouterDeps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MaxJSONBytes <= 0 {
		d.MaxJSONBytes = 1 << 20
	}

	r := gin.New()
	r.Use(
		middleware.RequestTracingMiddleware(),
		middleware.RequestLogger(d.Logger),
		middleware.EnhancedRecoveryMiddleware(d.Logger),
		middleware.CORSMiddleware(d.CORSOrigins),
		middleware.SecurityHeaders(),
		middleware.MetricsMiddleware(),
	)

	authMW := middleware.AuthMiddleware(d.Tokens, d.Blacklist)
	staffOnly := middleware.RequireStaff(d.StaffEmail)
	limitJSON := middleware.RequestSizeLimiter(d.MaxJSONBytes)
	noStore := middleware.CacheControlMiddleware("no-store")

	papers := NewPapersHandler(d.Catalog, d.Papers, d.Watch, d.Logger)
	auth := NewAuthHandler(d.Auth, d.Logger)
	gateway := NewGatewayHandler(d.Files, d.Logger)
	health := NewHealthHandler(d.Backend, d.Catalog, d.Blacklist, d.Files.Root, d.Logger)

	r.GET("/", Welcome)
	r.GET("/health", health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", noStore)

	authRoutes := api.Group("/auth", limitJSON)
	{
		authRoutes.POST("/login", auth.Login)
		authRoutes.POST("/change-password", auth.ChangePassword)
		authRoutes.POST("/logout", authMW, auth.Logout)
		authRoutes.GET("/me", authMW, auth.Me)
	}

	browse := api.Group("/papers")
	if d.BrowseRequiresAuth {
		browse.Use(authMW)
	}
	{
		browse.GET("", papers.List)
		browse.POST("/search", limitJSON, papers.Search)
		browse.POST("/filters/toggle", limitJSON, papers.ToggleFilter)
		browse.GET("/watch", papers.Watch)
		browse.GET("/:id", papers.Get)
	}

	admin := api.Group("/papers", authMW, staffOnly, limitJSON)
	{
		admin.POST("", papers.Create)
		admin.PUT("", papers.ReplaceAll)
		admin.POST("/reset", papers.Reset)
		admin.PUT("/:id", papers.Update)
		admin.DELETE("/:id", papers.Delete)
	}

	uploads := api.Group("", authMW, staffOnly)
	{
		uploads.POST("/upload", gateway.Upload)
		uploads.POST("/del", limitJSON, gateway.Delete)
	}

	r.GET("/download/:paperId/:filename", gateway.Download)
	r.Group("/uploads", middleware.CacheControlMiddleware("public, max-age=300")).
		StaticFS("/", gin.Dir(d.Files.Root, false))

	return r
}

// NewGatewayRouter serves only the file gateway, without auth, for running
// the file server on its own.
func NewGatewayRouter(files *storage.FileStore, corsOrigins []string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestTracingMiddleware(),
		middleware.RequestLogger(logger),
		middleware.EnhancedRecoveryMiddleware(logger),
		middleware.CORSMiddleware(corsOrigins),
		middleware.MetricsMiddleware(),
	)

	gateway := NewGatewayHandler(files, logger)
	r.GET("/", Welcome)
	r.POST("/api/upload", gateway.Upload)
	r.POST("/api/del", gateway.Delete)
	r.GET("/download/:paperId/:filename", gateway.Download)
	r.StaticFS("/uploads", gin.Dir(files.Root, false))
	return r
}
