package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/linguabridge/backend/internal/handler/chat"
	geoHandler "github.com/linguabridge/backend/internal/handler/geo"
	translateHandler "github.com/linguabridge/backend/internal/handler/translate"
	"github.com/linguabridge/backend/internal/language"
	middlewarePkg "github.com/linguabridge/backend/internal/middleware"
	chatservice "github.com/linguabridge/backend/internal/service/chat"
	"github.com/linguabridge/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatClient *chatservice.Client, translateSvc translateHandler.TranslateService, geoSvc geoHandler.LookupService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		chatHandler.New(chatClient).RegisterRoutes(api)
		translateHandler.New(translateSvc).RegisterRoutes(api)
		geoHandler.New(geoSvc).RegisterRoutes(api)

		// Supported selections for the language pickers.
		api.Get("/languages", func(w http.ResponseWriter, _ *http.Request) {
			names := language.Names()
			entries := make([]map[string]string, 0, len(names))
			for _, name := range names {
				entries = append(entries, map[string]string{
					"name": name,
					"code": language.Resolve(name),
				})
			}
			utils.RespondJSON(w, http.StatusOK, entries)
		})
	})

	return r
}
