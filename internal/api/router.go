package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/avilyaev/script-coach/internal/api/handler"
	customMiddleware "github.com/avilyaev/script-coach/internal/api/middleware"
	"github.com/avilyaev/script-coach/internal/config"
	"github.com/avilyaev/script-coach/internal/domain"
	"github.com/avilyaev/script-coach/internal/llm"
	"github.com/avilyaev/script-coach/internal/llm/anthropic"
	"github.com/avilyaev/script-coach/internal/llm/openai"
	"github.com/avilyaev/script-coach/internal/scripts"
	"github.com/avilyaev/script-coach/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, repo domain.SessionRepository) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Provider registry: one per process, providers registered when
	// their credentials are present
	registry := llm.LoadRegistry(func() *llm.Registry {
		retry := llm.RetryPolicy{
			MaxAttempts: cfg.LLM.Retry.MaxAttempts,
			Interval:    cfg.LLM.Retry.Interval,
			Multiplier:  cfg.LLM.Retry.Multiplier,
		}
		if retry.MaxAttempts == 0 {
			retry = llm.DefaultRetryPolicy()
		}

		reg := llm.NewRegistry(cfg.LLM.Provider)
		log.Info().Str("default", cfg.LLM.Provider).Msg("Initializing LLM providers")

		if cfg.LLM.Anthropic.APIKey != "" {
			reg.Register(anthropic.NewProvider(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.Model, retry))
		}
		if cfg.LLM.OpenAI.APIKey != "" {
			reg.Register(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model, retry))
		}
		if len(reg.Names()) == 0 {
			log.Warn().Msg("no LLM provider configured; relay requests will fail with a clear error")
		}
		return reg
	})

	prompts := scripts.LoadPrompts(cfg.Prompts.SystemFile, cfg.Prompts.TrainingFile)

	// The title generator degrades to its deterministic fallback when
	// no provider is usable
	titleProvider, err := registry.Default()
	if err != nil {
		titleProvider = nil
	}
	titles := service.NewTitleGenerator(titleProvider)

	chatHandler := handler.NewChatHandler(registry, prompts)
	sessionHandler := handler.NewSessionHandler(repo)
	titleHandler := handler.NewTitleHandler(titles)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/llm-providers", handler.ListProviders(registry))

		// The relay route carries long-lived streams, so the request
		// timeout only guards the non-streaming surface
		r.Post("/chat", chatHandler.Relay)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Post("/title", titleHandler.Generate)

			r.Route("/chats", func(r chi.Router) {
				r.Get("/", sessionHandler.List)
				r.Post("/", sessionHandler.Create)
				r.Delete("/", sessionHandler.ClearAll)

				r.Route("/{chatID}", func(r chi.Router) {
					r.Get("/", sessionHandler.Get)
					r.Delete("/", sessionHandler.Delete)
					r.Put("/messages", sessionHandler.UpdateMessages)
					r.Patch("/title", sessionHandler.UpdateTitle)
				})
			})
		})
	})

	return r
}
