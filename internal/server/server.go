package server

import (
	"net/http"
	"time"

	"odai-party/internal/config"
	"odai-party/internal/content"
	"odai-party/internal/game"
	"odai-party/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	repo      store.Repository
	library   *content.Library
	generator *game.Generator
	machine   game.Machine
	cfg       config.Config
	locks     *roomLocks
	ws        *wsHub
	limiter   *rateLimiter
	scheduler *scheduler
	now       func() time.Time
}

// New wires a server over repo. A nil repo falls back to the in-memory store and a
// nil library to an empty one, so topic draws report unavailable until content loads.
func New(repo store.Repository, library *content.Library, cfg config.Config) *Server {
	if repo == nil {
		repo = store.NewMemory()
	}
	if library == nil {
		library = content.NewLibrary("")
	}
	generator := game.NewGenerator()
	generator.ReverseProbability = cfg.ReverseProbability
	if game.ValidTemplate(cfg.TopicTemplate) {
		generator.Template = cfg.TopicTemplate
	}
	registerValidators()
	s := &Server{
		repo:      repo,
		library:   library,
		generator: generator,
		machine:   game.Machine{Reveal: cfg.RevealPhase},
		cfg:       cfg,
		locks:     newRoomLocks(),
		ws:        newWSHub(),
		limiter:   newRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		now:       func() time.Time { return time.Now().UTC() },
	}
	s.scheduler = newScheduler(s)
	return s
}

// Start launches the background jobs.
func (s *Server) Start() error {
	return s.scheduler.Start()
}

// Close stops the background jobs and drops every websocket.
func (s *Server) Close() {
	s.scheduler.Stop()
	s.ws.CloseAll()
}

func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/", s.handleHome)
	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	api.POST("/rooms", s.handleCreateRoom)
	api.POST("/rooms/join", s.handleJoinRoom)

	room := api.Group("/rooms/:roomID")
	room.GET("", s.handleGetRoom)
	room.GET("/qr.png", s.handleRoomQR)
	room.GET("/players", s.handleListPlayers)
	room.POST("/role", s.handleSwitchRole)
	room.POST("/leave", s.handleLeaveRoom)
	room.GET("/state", s.handleGetState)
	room.POST("/actions/:action", s.handleAction)
	room.GET("/answers", s.handleListAnswers)
	room.POST("/answers", s.handleSubmitAnswer)
	room.POST("/answers/:answerID/reveal", s.handleRevealAnswer)
	room.POST("/votes", s.handleCastVote)
	room.GET("/results", s.handleResults)

	api.GET("/content", s.handleExportContent)
	admin := api.Group("/content", s.requireAdmin)
	admin.PUT("", s.handleImportContent)
	admin.POST("/words", s.handleAddWord)
	admin.PUT("/words/:index", s.handleUpdateWord)
	admin.DELETE("/words/:index", s.handleDeleteWord)

	r.GET("/ws/rooms/:roomID", s.handleWebsocket)
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "Origin", adminTokenHeader},
		MaxAge:       12 * time.Hour,
	}
	for _, origin := range s.cfg.AllowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = s.cfg.AllowedOrigins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cfg
}
