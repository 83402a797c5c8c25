package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/glasskit/windowd/internal/api/http"
	"github.com/glasskit/windowd/internal/api/middleware"
	"github.com/glasskit/windowd/internal/api/ws"
	"github.com/glasskit/windowd/internal/domain/exec"
	"github.com/glasskit/windowd/internal/domain/geometry"
	"github.com/glasskit/windowd/internal/domain/wm"
	"github.com/glasskit/windowd/internal/infrastructure/config"
	"github.com/glasskit/windowd/internal/infrastructure/logging"
	"github.com/glasskit/windowd/internal/infrastructure/monitoring"
	"github.com/glasskit/windowd/internal/providers/compositor"
	"github.com/glasskit/windowd/internal/providers/ipc"
	"github.com/glasskit/windowd/internal/providers/notify"
	"github.com/glasskit/windowd/internal/providers/persist"
)

// Version is the reported service version.
const Version = "0.1.0"

// Server wraps the HTTP server and the window manager it fronts.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	loop       *exec.Loop
	manager    *wm.Manager
	store      *persist.Store
	webhook    *notify.Webhook
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer wires the window manager, its providers, and the API
// surface from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		l, err := logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			OutputPaths: []string{"stdout"},
		})
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		logger = l
	}

	logger.Info("Initializing windowd",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	metrics := monitoring.NewMetrics()

	loop := exec.NewLoop(logger, metrics)
	loop.Start()

	ipcClient := ipc.NewLoopback(logger)
	tracker := compositor.New(logger)
	hub := ws.NewHub(logger, metrics)

	var webhook *notify.Webhook
	organizers := []wm.Organizer{hub}
	if cfg.Notify.WebhookURL != "" {
		webhook = notify.New(cfg.Notify, logger)
		organizers = append(organizers, webhook)
		logger.Info("Organizer webhook enabled", zap.String("url", cfg.Notify.WebhookURL))
	}

	var store *persist.Store
	if cfg.Persist.Enabled {
		s, err := persist.New(cfg.Persist.Dir, logger)
		if err != nil {
			loop.Stop()
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		store = s
		logger.Info("Task persistence enabled", zap.String("dir", cfg.Persist.Dir))
	}

	var persister wm.Persister
	if store != nil {
		persister = store
	}
	manager := wm.NewManager(loop, logger, metrics, ipcClient, tracker,
		wm.CombineOrganizers(organizers...), persister, wm.Options{
			PauseAckTimeout: cfg.Lifecycle.PauseAckTimeout,
			StopDelay:       cfg.Lifecycle.StopDelay,
		})
	hub.Bind(manager)
	ipcClient.Bind(manager)

	if err := seedDisplays(manager, cfg, logger); err != nil {
		loop.Stop()
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}

	handlers := apihttp.NewHandlers(manager, metrics, Version)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Window management
	router.POST("/launch", handlers.Launch)
	router.POST("/taskgroups/:id/reparent", handlers.Reparent)
	router.POST("/taskgroups/:id/resize", handlers.Resize)
	router.POST("/taskgroups/:id/move-to-front", handlers.MoveToFront)
	router.POST("/taskgroups/:id/move-to-back", handlers.MoveToBack)
	router.GET("/taskgroups/:id/visibility", handlers.Visibility)
	router.POST("/ensure-visible", handlers.EnsureVisible)
	router.POST("/units/:token/deliver", handlers.Deliver)
	router.GET("/tree", handlers.Tree)
	router.GET("/recents", handlers.Recents)

	// Lifecycle round trips from client processes
	router.POST("/units/:token/finish", handlers.FinishUnit)
	router.POST("/units/:token/ack-pause", handlers.AckPause)
	router.POST("/processes/attach", handlers.AttachProcess)
	router.POST("/processes/died", handlers.ProcessDied)

	// Display power
	router.POST("/displays/:id/sleep", handlers.SleepDisplay)
	router.POST("/displays/:id/wake", handlers.WakeDisplay)

	// Organizer event stream
	router.GET("/stream", hub.HandleConnection)

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/metrics/json", handlers.MetricsSnapshot)

	logger.Info("Server initialized")

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
			Handler: router,
		},
		router:  router,
		loop:    loop,
		manager: manager,
		store:   store,
		webhook: webhook,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Manager exposes the window manager, used by tests and embedding.
func (s *Server) Manager() *wm.Manager { return s.manager }

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close gracefully shuts the server down: stop accepting requests,
// drain the executor, then close the providers.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
	}

	s.loop.Stop()
	if s.store != nil {
		s.store.Close()
	}
	if s.webhook != nil {
		s.webhook.Close()
	}

	s.logger.Sync()
	return nil
}

// seedDisplays creates the boot-time display set.
func seedDisplays(manager *wm.Manager, cfg *config.Config, logger *logging.Logger) error {
	seeds, err := config.LoadDisplaySeeds(cfg.Displays.SeedPath)
	if err != nil {
		return fmt.Errorf("load display seeds: %w", err)
	}
	for _, seed := range seeds {
		err := manager.AddDisplay(wm.DisplayOptions{
			ID:      seed.ID,
			Name:    seed.Name,
			Bounds:  geometry.NewRect(0, 0, seed.Width, seed.Height),
			Density: seed.Density,
			StableInsets: geometry.Insets{
				Top:    seed.InsetTop,
				Bottom: seed.InsetBottom,
			},
			FreeformCapable:    seed.FreeformCapable,
			SingleTaskInstance: seed.SingleTaskInstance,
		})
		if err != nil {
			return fmt.Errorf("seed display %d: %w", seed.ID, err)
		}
	}
	logger.Info("Displays seeded", zap.Int("count", len(seeds)))
	return nil
}
