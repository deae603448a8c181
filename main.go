package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/cors"

	"github.com/ananke-board/ananke/database"
	"github.com/ananke-board/ananke/handlers"
	"github.com/ananke-board/ananke/services"
)

func main() {
	// Load environment variables from .env file (optional)
	if err := LoadEnv(".env"); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Initialize database
	db, err := database.InitDB(getenv("DB_PATH", "./ananke.db"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize services
	authService := services.NewAuthService(getenv("JWT_SECRET", "ananke-secret-key-change-in-production"))
	boardStore := database.NewBoardStore(db)
	userService := database.NewUserService(db)

	// Initialize WebSocket hub and the sync coordinator both write
	// paths feed into
	hub := services.NewHub()
	go hub.Run()
	syncCoordinator := services.NewSyncCoordinator(boardStore, hub)

	// Inbound board documents carry inline-encoded media; cap them at
	// the transport boundary
	maxBoardBytes := getenvInt64("MAX_BOARD_BYTES", 100*1024*1024)

	// Initialize handlers
	authMiddleware := handlers.NewAuthMiddleware(authService)
	authHandler := handlers.NewAuthHandler(authService, userService)
	boardHandler := handlers.NewBoardHandler(boardStore, syncCoordinator, hub, maxBoardBytes)

	// Setup router
	r := mux.NewRouter()

	auth := authMiddleware.Auth
	admin := func(h http.HandlerFunc) http.Handler {
		return auth(authMiddleware.RequireRole(services.RoleAdmin, h))
	}

	// Auth routes
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/logout", authHandler.Logout).Methods("POST")
	r.Handle("/api/auth/me", auth(http.HandlerFunc(authHandler.Me))).Methods("GET")
	r.Handle("/api/auth/complete-setup", auth(http.HandlerFunc(authHandler.CompleteSetup))).Methods("POST")
	r.Handle("/api/auth/list", auth(http.HandlerFunc(authHandler.ListAssignees))).Methods("GET")

	// Account management routes (admin and up)
	r.Handle("/api/auth/create-account", admin(authHandler.CreateAccount)).Methods("POST")
	r.Handle("/api/auth/users", admin(authHandler.ListUsers)).Methods("GET")
	r.Handle("/api/auth/users/{id}/role", admin(authHandler.UpdateRole)).Methods("PUT")
	r.Handle("/api/auth/users/{id}", admin(authHandler.DeleteUser)).Methods("DELETE")

	// Board routes
	r.Handle("/api/board", auth(http.HandlerFunc(boardHandler.GetBoard))).Methods("GET")
	r.Handle("/api/board", auth(http.HandlerFunc(boardHandler.UpdateBoard))).Methods("POST")

	// WebSocket route for real-time board sync
	r.Handle("/ws", auth(http.HandlerFunc(boardHandler.HandleWebSocket)))

	// Static file server for frontend
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./public")))

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, change to your domain
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	port := getenv("PORT", "3000")

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server starting on port %s", port)
	log.Fatal(server.ListenAndServe())
}
