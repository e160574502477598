package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	"github.com/seemicrminc/tutorwidgets/internal/auth"
	"github.com/seemicrminc/tutorwidgets/internal/config"
	"github.com/seemicrminc/tutorwidgets/internal/database"
	"github.com/seemicrminc/tutorwidgets/internal/frame"
	"github.com/seemicrminc/tutorwidgets/internal/handlers"
	"github.com/seemicrminc/tutorwidgets/internal/notifier"
	"github.com/seemicrminc/tutorwidgets/internal/wizard"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db := database.Connect(cfg)

	// Initialize Notifier
	var submissionNotifier notifier.Notifier
	if cfg.DiscordBotToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			log.Printf("Discord notifier not initialized: %v", err)
		} else {
			submissionNotifier = notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID)
		}
	}

	// Initialize Handlers
	hub := frame.NewHub()
	authHandler := auth.NewAuthHandler(cfg, db)
	widgetHandler := handlers.NewWidgetHandler(cfg, db, authHandler)
	wizardManager := wizard.NewManager(widgetHandler, nil)
	wizardHandler := handlers.NewWizardHandler(authHandler, wizardManager)
	submitHandler := handlers.NewSubmitHandler(db, submissionNotifier)
	scheduleHandler := handlers.NewScheduleHandler(db, authHandler)
	renderHandler := handlers.NewRenderHandler(cfg, db, hub)

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, authHandler, widgetHandler, wizardHandler, submitHandler, scheduleHandler, renderHandler, hub)

	// Start Server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
