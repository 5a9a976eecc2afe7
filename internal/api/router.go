package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/jungclaude/internal/api/handlers"
	mw "github.com/Harshitk-cp/jungclaude/internal/api/middleware"
	"github.com/Harshitk-cp/jungclaude/internal/buildconfig"
	"github.com/Harshitk-cp/jungclaude/internal/config"
	"github.com/Harshitk-cp/jungclaude/internal/domain"
	"github.com/Harshitk-cp/jungclaude/internal/llm"
	"github.com/Harshitk-cp/jungclaude/internal/notify"
	"github.com/Harshitk-cp/jungclaude/internal/service"
	"github.com/Harshitk-cp/jungclaude/internal/store"
)

const limiterCleanupInterval = 10 * time.Minute

// Options carries everything NewApp needs besides the database.
type Options struct {
	Rumination         config.Rumination
	LLM                domain.LLMClient
	Notifier           domain.Notifier
	AdminAPIKey        string
	RuminationSchedule string
	IdentitySchedule   string
	ShareDreamImages   bool
	RateLimitRPS       float64
	RateLimitBurst     int
}

// App holds the router, the services and the scheduler for lifecycle management.
type App struct {
	Router     *chi.Mux
	Scheduler  *service.Scheduler
	Cycles     *service.Cycles
	Rumination *service.RuminationService
	Dream      *service.DreamService
	Scholar    *service.ScholarService

	metrics *mw.Metrics
	limiter *mw.RateLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewApp(db *sql.DB, opts Options, logger *zap.Logger) (*App, error) {
	cfg := opts.Rumination

	// Stores
	conversationStore := store.NewConversationStore(db)
	fragmentStore := store.NewFragmentStore(db)
	tensionStore := store.NewTensionStore(db)
	insightStore := store.NewInsightStore(db)
	logStore := store.NewRuminationLogStore(db)
	coreStore := store.NewCoreAttributeStore(db)
	contradictionStore := store.NewIdentityContradictionStore(db)
	selfStore := store.NewPossibleSelfStore(db)
	narrativeStore := store.NewNarrativeStore(db)
	agencyStore := store.NewAgencyStore(db)
	extractionStore := store.NewIdentityExtractionStore(db)
	bridgeStore := store.NewBridgeStore(db)
	dreamStore := store.NewDreamStore(db)
	researchStore := store.NewResearchStore(db)

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger.Named("notify"))
	}
	llmClient := opts.LLM
	if llmClient == nil {
		logger.Warn("no LLM client configured, every model step will report empty results")
		llmClient = llm.NewMockClient()
	}

	// Services
	identitySvc := service.NewIdentityContextBuilder(cfg.AgentInstance, coreStore, contradictionStore, narrativeStore, selfStore, logger.Named("identity"))
	ruminationSvc := service.NewRuminationService(cfg, conversationStore, fragmentStore, tensionStore, insightStore, logStore,
		llmClient, notifier, identitySvc, logger.Named("rumination"))
	bridgeSvc := service.NewIdentityBridgeService(cfg, tensionStore, insightStore, fragmentStore, contradictionStore,
		bridgeStore, logStore, logger.Named("bridge"))
	consolidationSvc := service.NewIdentityConsolidationService(cfg, conversationStore, extractionStore, coreStore,
		contradictionStore, selfStore, narrativeStore, agencyStore, llmClient, logger.Named("consolidation"))
	dreamSvc := service.NewDreamService(cfg, fragmentStore, dreamStore, conversationStore, ruminationSvc, llmClient,
		notifier, identitySvc, logStore, opts.ShareDreamImages, logger.Named("dream"))
	scholarSvc := service.NewScholarService(cfg, conversationStore, researchStore, llmClient, logStore, logger.Named("scholar"))

	cycles := service.NewCycles(cfg.AdminUserID, ruminationSvc, dreamSvc, scholarSvc, consolidationSvc, bridgeSvc, logger.Named("cycle"))
	scheduler, err := service.NewScheduler(logger.Named("scheduler"),
		service.Job{Name: service.JobRumination, Schedule: opts.RuminationSchedule, Run: cycles.Rumination},
		service.Job{Name: service.JobIdentity, Schedule: opts.IdentitySchedule, Run: cycles.Identity},
		service.Job{Name: service.JobConsolidation, Run: cycles.Consolidation},
		service.Job{Name: service.JobBridge, Run: cycles.Bridge},
	)
	if err != nil {
		return nil, err
	}

	// Handlers
	triggerHandler := handlers.NewTriggerHandler(scheduler)
	conversationHandler := handlers.NewConversationHandler(conversationStore, ruminationSvc, logger.Named("api"))
	ruminationHandler := handlers.NewRuminationHandler(ruminationSvc)
	identityHandler := handlers.NewIdentityHandler(cfg.AgentInstance, narrativeStore)

	r := chi.NewRouter()
	app := &App{
		Router:     r,
		Scheduler:  scheduler,
		Cycles:     cycles,
		Rumination: ruminationSvc,
		Dream:      dreamSvc,
		Scholar:    scholarSvc,
		metrics:    mw.NewMetrics(),
		limiter:    mw.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		stopCh:     make(chan struct{}),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger.Named("http")))
	r.Use(middleware.Recoverer)

	// Health and metrics (no auth)
	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	keyHash := mw.HashAPIKey(opts.AdminAPIKey)

	r.Route("/admin", func(r chi.Router) {
		r.Use(app.limiter.Middleware)
		r.Use(mw.AdminAuth(keyHash))

		r.Route("/triggers", func(r chi.Router) {
			r.Post("/rumination", triggerHandler.Rumination)
			r.Post("/identity-consolidation", triggerHandler.IdentityConsolidation)
			r.Post("/identity-bridge", triggerHandler.IdentityBridge)
		})
		r.Post("/agent-identity/consolidate", triggerHandler.Consolidate)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(app.limiter.Middleware)
		r.Use(mw.AdminAuth(keyHash))

		r.Post("/conversations", conversationHandler.Create)
		r.Get("/rumination/stats", ruminationHandler.Stats)
		r.Get("/agent-identity/chapters", identityHandler.Chapters)
	})

	return app, nil
}

// Start launches the scheduler and the rate limiter's cleanup loop.
func (app *App) Start() {
	app.Scheduler.Start()
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.limiter.Run(limiterCleanupInterval, app.stopCh)
	}()
}

// Stop waits for in-flight cycles to finish.
func (app *App) Stop() {
	app.stopOnce.Do(func() { close(app.stopCh) })
	app.Scheduler.Stop()
	app.wg.Wait()
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": err.Error()})
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		snap := app.metrics.Snapshot()
		response := map[string]any{
			"uptime_seconds": snap.Uptime.Seconds(),
			"uptime_human":   snap.Uptime.Round(time.Second).String(),
			"request_count":  snap.Requests,
			"error_count":    snap.ClientErrors + snap.ServerErrors,
			"server_errors":  snap.ServerErrors,
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": float64(memStats.Alloc) / 1024 / 1024,
				"sys_mb":   float64(memStats.Sys) / 1024 / 1024,
				"num_gc":   memStats.NumGC,
			},
			"jobs":       app.Scheduler.Jobs(),
			"go_version": runtime.Version(),
			"build":      buildconfig.VersionInfo(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.ConversationStore          = (*store.ConversationStore)(nil)
	_ domain.FragmentStore              = (*store.FragmentStore)(nil)
	_ domain.TensionStore               = (*store.TensionStore)(nil)
	_ domain.InsightStore               = (*store.InsightStore)(nil)
	_ domain.RuminationLogStore         = (*store.RuminationLogStore)(nil)
	_ domain.CoreAttributeStore         = (*store.CoreAttributeStore)(nil)
	_ domain.IdentityContradictionStore = (*store.IdentityContradictionStore)(nil)
	_ domain.PossibleSelfStore          = (*store.PossibleSelfStore)(nil)
	_ domain.NarrativeStore             = (*store.NarrativeStore)(nil)
	_ domain.AgencyStore                = (*store.AgencyStore)(nil)
	_ domain.IdentityExtractionStore    = (*store.IdentityExtractionStore)(nil)
	_ domain.BridgeStore                = (*store.BridgeStore)(nil)
	_ domain.LLMClient                  = (*llm.Client)(nil)
	_ domain.LLMClient                  = (*llm.MockClient)(nil)
)
