package serverhttp

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"namerecon-service/internal/config"
	"namerecon-service/internal/middleware"
	recHnd "namerecon-service/internal/reconcile/handler"
	"namerecon-service/internal/store"
	"namerecon-service/server/http/handlers"
)

func NewRouter(cfg config.Config, st store.Store, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// порядок важен: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	// health-check
	r.Get("/health", handlers.Health)

	// профилирование только по флагу: наружу не светим
	if cfg.Pprof {
		r.Mount("/debug", chimw.Profiler())
	}

	h := recHnd.New(cfg, st, logger)
	// разбор файлов — самое дорогое, лимитируем только его
	heavy := middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	// справочник
	r.Get("/masters", h.ListMasters)
	r.With(heavy).Post("/masters", h.UploadMasters)

	// сопоставление и сверка
	r.With(heavy).Post("/match", h.Match)
	r.With(heavy).Post("/reconcile", h.Reconcile)

	// выученные связки
	r.Get("/mappings", h.ListMappings)
	r.Post("/mappings", h.Learn)
	r.Delete("/mappings", h.DeleteMapping)

	return r
}
