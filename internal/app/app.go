// Package app assembles the server: store, parsers, bus, watcher, scheduled
// sync, notifier and HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/tony-c3a/tony-mission-control/internal/config"
	"github.com/tony-c3a/tony-mission-control/internal/datapath"
	"github.com/tony-c3a/tony-mission-control/internal/event"
	"github.com/tony-c3a/tony-mission-control/internal/handler"
	"github.com/tony-c3a/tony-mission-control/internal/logger"
	"github.com/tony-c3a/tony-mission-control/internal/middleware"
	"github.com/tony-c3a/tony-mission-control/internal/notify"
	"github.com/tony-c3a/tony-mission-control/internal/parser"
	"github.com/tony-c3a/tony-mission-control/internal/service"
	"github.com/tony-c3a/tony-mission-control/internal/store"
	"github.com/tony-c3a/tony-mission-control/internal/watcher"
)

type Application struct {
	cfg      *config.Config
	store    *store.Store
	bus      *event.Bus
	services handler.Services
	auth     *service.AuthService
	watcher  *watcher.Watcher
	notifier *notify.Notifier
	cron     *cron.Cron
	router   *gin.Engine
	server   *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// New opens the store and builds every component. A store that can't be
// opened is the one startup failure New reports.
func New(cfg *config.Config) (*Application, error) {
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return NewWithStore(cfg, st)
}

func NewWithStore(cfg *config.Config, st *store.Store) (*Application, error) {
	layout := datapath.New(cfg.Data.Root)
	src := parser.NewSource(layout)
	bus := event.NewBus()
	ctx, cancel := context.WithCancel(context.Background())

	a := &Application{
		cfg:   cfg,
		store: st,
		bus:   bus,
		services: handler.Services{
			Ideas:    service.NewIdeaService(src),
			Todos:    service.NewTodoService(src),
			Time:     service.NewTimeService(src, st),
			Status:   service.NewStatusService(src),
			Memory:   service.NewMemoryService(src),
			Workouts: service.NewWorkoutService(src),
			Sync:     service.NewSyncService(src, st),
		},
		auth:   service.NewAuthService(cfg.Auth),
		cron:   cron.New(),
		ctx:    ctx,
		cancel: cancel,
	}

	// Registered before any stream subscriber: delivery follows subscription
	// order, so clients told about a time-update re-fetch fresh rows.
	bus.Subscribe(a.refreshTimeEntries)

	if cfg.Watcher.Enabled {
		w, err := watcher.New(watcher.DefaultRules(layout), bus, watcher.Options{
			Stability:    cfg.Watcher.Stability.Duration,
			PollInterval: cfg.Watcher.PollInterval.Duration,
		})
		if err != nil {
			cancel()
			return nil, err
		}
		a.watcher = w
	}

	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		sender, err := notify.NewTelegramSender(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			logger.Warn("notify.disabled", "err", err)
		} else {
			a.notifier = notify.New(sender, 32)
		}
	}

	if err := a.setupCronJobs(); err != nil {
		cancel()
		return nil, err
	}
	a.router = a.routes()
	return a, nil
}

func (a *Application) Bus() *event.Bus { return a.bus }

func (a *Application) Router() *gin.Engine { return a.router }

func (a *Application) refreshTimeEntries(ev event.Event) error {
	if ev.Type != event.TimeUpdate {
		return nil
	}
	data, ok := ev.Data.(map[string]string)
	if !ok {
		return nil
	}
	_, err := a.services.Sync.RefreshTimeFile(a.ctx, data["file"])
	return err
}

func (a *Application) setupCronJobs() error {
	if a.cfg.Sync.Cron == "" {
		return nil
	}
	_, err := a.cron.AddFunc(a.cfg.Sync.Cron, func() {
		if _, err := a.services.Sync.Run(a.ctx); err != nil {
			logger.Error("sync.scheduled", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sync %q: %w", a.cfg.Sync.Cron, err)
	}
	return nil
}

func (a *Application) routes() *gin.Engine {
	origins := a.cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-New-Token", "Content-Disposition"},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           12 * time.Hour,
	}))

	apiH := handler.NewAPIHandler(a.services, a.bus)
	streamH := handler.NewStreamHandler(a.bus, a.cfg.Stream.KeepAlive.Duration, a.cfg.Stream.Buffer)
	authH := handler.NewAuthHandler(a.auth)

	r.GET("/api/health", apiH.Health)
	r.POST("/api/login", authH.Login)

	api := r.Group("/api")
	if a.auth.Enabled() {
		api.Use(middleware.JWTAuth([]byte(a.cfg.Auth.Secret), a.cfg.Auth.TokenTTL.Duration))
	}
	api.GET("/ideas", apiH.ListIdeas)
	api.POST("/ideas", apiH.AddIdea)
	api.GET("/todos", apiH.ListTodos)
	api.POST("/todos", apiH.AddTodo)
	api.GET("/timetracking", apiH.ListTime)
	api.GET("/timetracking/stats", apiH.TimeStats)
	api.GET("/timetracking/export", apiH.ExportTime)
	api.GET("/workouts", apiH.Workouts)
	api.GET("/memory", apiH.Memory)
	api.GET("/status", apiH.Status)
	api.POST("/sync", apiH.Sync)
	api.GET("/stream", streamH.Stream)
	return r
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Start runs the background parts and begins serving. It returns once the
// listener is bound; later serve errors are logged.
func (a *Application) Start() error {
	ln, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Addr(), err)
	}

	if a.cfg.Sync.OnStart {
		if _, err := a.services.Sync.Run(a.ctx); err != nil {
			logger.Error("sync.on_start", "err", err)
		}
	}
	if a.watcher != nil {
		a.watcher.Start(a.ctx)
	}
	if a.notifier != nil {
		a.bus.Subscribe(a.notifier.Handle)
		go a.notifier.Run(a.ctx)
	}
	a.cron.Start()

	a.server = &http.Server{
		Handler:     a.router,
		BaseContext: func(net.Listener) context.Context { return a.ctx },
	}
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
		}
	}()
	logger.Info("server starting", "addr", ln.Addr().String(), "data", a.cfg.Data.Root, "watcher", a.watcher != nil)
	return nil
}

// Stop cancels background work, drains HTTP connections and closes the store.
// Request contexts derive from the application context, so open streams end
// as soon as Stop begins.
func (a *Application) Stop(ctx context.Context) error {
	a.cancel()
	<-a.cron.Stop().Done()

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
		}
	}
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	logger.Info("server stopped")
	return errors.Join(errs...)
}
