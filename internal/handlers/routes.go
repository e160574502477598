package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/seemicrminc/tutorwidgets/internal/auth"
	"github.com/seemicrminc/tutorwidgets/internal/frame"
)

func RegisterRoutes(
	r *chi.Mux,
	authHandler *auth.AuthHandler,
	widgetHandler *WidgetHandler,
	wizardHandler *WizardHandler,
	submitHandler *SubmitHandler,
	scheduleHandler *ScheduleHandler,
	renderHandler *RenderHandler,
	hub *frame.Hub,
) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(authHandler.SessionRefresh)

	// Initialize Huma API
	config := huma.DefaultConfig("Tutor Widgets API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Post("/login", authHandler.HandleLogin)
	r.Post("/logout", authHandler.HandleLogout)
	hub.Routes(r)

	// Embedded widget surface, no session required
	huma.Get(api, "/public/widgets/{publicID}", renderHandler.HandleRender)
	huma.Get(api, "/public/widgets/{publicID}/slots", scheduleHandler.HandleAvailableSlots)
	huma.Post(api, "/public/widgets/{publicID}/submissions", submitHandler.HandleSubmit)
	huma.Get(api, "/public/preview/{widgetType}", renderHandler.HandlePreview)
	huma.Get(api, "/widget/{slug}", renderHandler.HandleEmbed)

	// Operator routes, session or API key required
	secured := []map[string][]string{{"cookieAuth": {}}, {"apiKeyAuth": {}}}
	withAuth := func(o *huma.Operation) {
		o.Security = secured
	}

	huma.Get(api, "/me", authHandler.HandleMe, withAuth)

	huma.Get(api, "/widgets", widgetHandler.HandleListWidgets, withAuth)
	huma.Post(api, "/widgets", widgetHandler.HandleCreateWidget, withAuth)
	huma.Get(api, "/widgets/{id}", widgetHandler.HandleGetWidget, withAuth)
	huma.Put(api, "/widgets/{id}", widgetHandler.HandleUpdateWidget, withAuth)
	huma.Delete(api, "/widgets/{id}", widgetHandler.HandleDeleteWidget, withAuth)
	huma.Patch(api, "/widgets/{id}/active", widgetHandler.HandleToggleWidget, withAuth)
	huma.Post(api, "/widgets/{id}/slots", scheduleHandler.HandleCreateSlots, withAuth)

	huma.Post(api, "/wizard/open", wizardHandler.HandleOpen, withAuth)
	huma.Get(api, "/wizard", wizardHandler.HandleState, withAuth)
	huma.Put(api, "/wizard/draft", wizardHandler.HandleDraft, withAuth)
	huma.Post(api, "/wizard/fields/toggle", wizardHandler.HandleToggleField, withAuth)
	huma.Post(api, "/wizard/next", wizardHandler.HandleNext, withAuth)
	huma.Post(api, "/wizard/back", wizardHandler.HandleBack, withAuth)
	huma.Post(api, "/wizard/submit", wizardHandler.HandleSubmit, withAuth)
	huma.Post(api, "/wizard/close", wizardHandler.HandleClose, withAuth)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
	})
}
