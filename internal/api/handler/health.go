package handler

import (
	"net/http"

	"github.com/avilyaev/script-coach/internal/api/response"
	"github.com/avilyaev/script-coach/internal/llm"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ListProviders returns the configured LLM providers
func ListProviders(registry *llm.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        registry.Names(),
			"default_provider": registry.DefaultName(),
		})
	}
}
