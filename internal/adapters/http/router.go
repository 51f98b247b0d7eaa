package http

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/adapters/auth"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/adapters/signal"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/app/jobs"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/app/orch"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/config"
)

// Deps are the collaborators the router exposes. Queue and Calls may be nil.
type Deps struct {
	Orch     *orch.Orchestrator
	Verifier *auth.Verifier
	Queue    *jobs.Queue
	Calls    CallLog
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("VoiceSessions", store))
	r.Use(IdentityMiddleware(IdentityOptions{
		Verifier:   deps.Verifier,
		CookieName: cfg.Auth.CookieName,
		AllowQuery: cfg.Auth.AllowQueryIdentity,
	}))

	if dirExists(cfg.StaticPath) {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(filepath.Join(cfg.StaticPath, "index.html"))
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &handlers{orch: deps.Orch, queue: deps.Queue, iceServers: cfg.WebRTC.ICEServers}
	r.GET("/healthz", h.health)

	ctrl := signal.NewSignalWSController(deps.Orch, signal.Options{
		SendBuffer:       cfg.Signal.SendBuffer,
		WriteTimeout:     cfg.Signal.WriteTimeout,
		PingPeriod:       cfg.PingPeriod,
		ReadLimit:        cfg.ReadLimit,
		AllowedOrigins:   cfg.AllowedOrigins,
		CallRateLimit:    cfg.Signal.CallRateLimit,
		CallRateInterval: cfg.Signal.CallRateInterval,
	})

	api := r.Group("/api")
	api.GET("/ice-servers", h.iceServersList)

	authed := api.Group("", RequireIdentity())
	authed.GET("/online", h.onlineUsers)
	authed.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("user", c.GetString(userIDKey)).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	if deps.Calls != nil {
		hh := &historyHandlers{calls: deps.Calls, isOnline: deps.Orch.Registry.IsOnline}
		authed.GET("/calls/history", hh.history)
		authed.GET("/calls/recent", hh.recent)
		authed.GET("/calls/room/:roomId", hh.call)
		authed.GET("/users/:userId/presence", hh.presence)
	}

	return r
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
