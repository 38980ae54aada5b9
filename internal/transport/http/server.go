package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/facingapp/node-server/internal/config"
)

// NewServer builds an HTTP server with the socket endpoint and invite pages.
func NewServer(hub Hub, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter builds the gin engine serving every HTTP route.
func NewRouter(hub Hub, cfg config.Config, logger *zerolog.Logger) *gin.Engine {
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(logger))
	r.Use(CORSMiddleware(cfg.AllowedOrigins))
	r.SetHTMLTemplate(loadPages())

	r.GET("/health", healthHandler)
	r.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg, logger)))
	r.GET("/invite/:id", InviteHandler(cfg.Development()))

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.StaticFile("/", cfg.StaticPath+"/index.html")
		logger.Info().Str("static", cfg.StaticPath).Msg("serving static client")
	}
	r.NoRoute(notFoundHandler)

	return r
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
