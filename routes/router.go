package routes

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pawanx64/File-Sharing-Backend/auth/middleware"
	"github.com/pawanx64/File-Sharing-Backend/handlers"
	"github.com/pawanx64/File-Sharing-Backend/services"
)

type Deps struct {
	Accounts *services.AccountService
	Files    *services.FileService
	Tokens   middleware.TokenValidator
	Log      *zap.SugaredLogger

	AllowedOrigins []string
	// Limiter applies to every route, OTPLimiter additionally to the
	// password reset routes.
	Limiter    *middleware.RateLimiter
	OTPLimiter *middleware.RateLimiter

	// Ping reports whether the database is reachable. Optional.
	Ping func(ctx context.Context) error
}

// corsConfig allows credentials for listed origins. A "*" entry opens the API
// to every origin without credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(d.Log),
		middleware.Metrics(),
	)
	router.Use(cors.New(corsConfig(d.AllowedOrigins)))

	router.GET("/healthz", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(c.Request.Context()); err != nil {
				d.Log.Warnw("health check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/", d.Limiter.Middleware())
	api.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "File sharing backend is running")
	})

	authRequired := middleware.AuthRequired(d.Tokens)
	RegisterAccountRoutes(api, handlers.NewAccountHandler(d.Accounts, d.Log), authRequired, d.OTPLimiter)
	RegisterFileRoutes(api, handlers.NewFileHandler(d.Files, d.Log), authRequired)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found", "code": services.CodeNotFound})
	})
	return router
}
