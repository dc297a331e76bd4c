package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/arenachat/arena-server/internal/config"
	"github.com/arenachat/arena-server/internal/core"
	"github.com/arenachat/arena-server/internal/images"
	"github.com/arenachat/arena-server/internal/store"
)

// Deps bundles what the HTTP layer needs from the rest of the app.
type Deps struct {
	Store     store.Store
	Registry  *core.Registry
	Engine    *core.Engine
	Lifecycle *core.Lifecycle
	Images    *images.Service
}

// NewServer builds the HTTP server: REST API, websocket endpoint,
// uploaded-image serving and metrics.
func NewServer(deps Deps, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware())

	roomHandlers := NewRoomHandlers(deps.Store, deps.Registry, deps.Lifecycle, logger)
	uploadHandlers := NewUploadHandlers(deps.Images, logger)
	miscHandlers := NewMiscHandlers(deps.Store, deps.Registry, logger)
	wsHandler := NewWSHandler(deps.Registry, deps.Engine, deps.Store, deps.Lifecycle, logger)

	api := router.Group("/api")
	{
		api.GET("/rooms", roomHandlers.ListRooms)
		api.POST("/rooms", roomHandlers.CreateRoom)
		api.GET("/rooms/:name", roomHandlers.GetRoom)
		api.GET("/quota", roomHandlers.Quota)
		api.POST("/upload", uploadHandlers.Upload)
		api.GET("/stats", miscHandlers.Stats)
		api.POST("/feedback", miscHandlers.Feedback)
	}

	router.GET("/health", miscHandlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static("/uploads", cfg.UploadDir)
	router.GET("/ws", wsHandler.Handle)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
