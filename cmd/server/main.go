package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"docforge/internal/aiconfig"
	"docforge/internal/api"
	"docforge/internal/auth"
	"docforge/internal/generate"
	"docforge/internal/models"
	"docforge/internal/project"
	"docforge/internal/quiz"
	"docforge/internal/subscription"
	"docforge/pkg/cache"
	"docforge/pkg/database"
	"docforge/pkg/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	// Initialize database
	dbConfig := &database.Config{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
	}

	db, err := database.NewPostgresDB(dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.AIConfig{},
		&models.CustomModel{},
		&models.UsageRecord{},
		&models.SubscriptionPlan{},
		&models.Subscription{},
		&models.Quiz{},
		&models.QuizParticipant{},
		&models.QuizAnswer{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	subscription.EnsureDefaultPlans(db)

	// Initialize Redis cache
	redisCache := cache.NewRedisCache(os.Getenv("REDIS_ADDR"))

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Initialize repositories
	authRepo := auth.NewRepository(db)
	projectRepo := project.NewRepository(db)
	aiconfigRepo := aiconfig.NewRepository(db)
	usageRepo := generate.NewRepository(db)
	subscriptionRepo := subscription.NewRepository(db)
	quizRepo := quiz.NewRepository(db)

	// Initialize services
	jwtSecret := os.Getenv("JWT_SECRET")
	authService := auth.NewService(authRepo, jwtSecret)
	projectService := project.NewService(projectRepo)
	aiconfigService := aiconfig.NewService(aiconfigRepo)
	subscriptionService := subscription.NewService(subscriptionRepo, aiconfigService)
	billing := subscription.NewBilling(subscriptionRepo, subscription.BillingConfig{
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		FrontendURL:   os.Getenv("FRONTEND_URL"),
	})
	serverKeys := map[string]string{
		models.ProviderOpenAI:    os.Getenv("OPENAI_API_KEY"),
		models.ProviderAnthropic: os.Getenv("ANTHROPIC_API_KEY"),
	}
	generateService := generate.NewService(
		aiconfigService,
		subscriptionService,
		generate.NewHTTPClient(),
		usageRepo,
		serverKeys,
	)
	quizService := quiz.NewService(quizRepo, redisCache, wsHub)

	// Initialize handlers
	authHandler := auth.NewHandler(authService)
	projectHandler := project.NewHandler(projectService)
	aiconfigHandler := aiconfig.NewHandler(aiconfigService)
	generateHandler := generate.NewHandler(generateService)
	subscriptionHandler := subscription.NewHandler(subscriptionService, billing, authService)
	quizHandler := quiz.NewHandler(quizService, authService)

	// Setup router
	router := mux.NewRouter()
	router.Use(api.RequestID)

	// CORS middleware configuration
	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3000"
	}
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	handler := corsMiddleware.Handler(router)

	// Public routes - no JWT required
	router.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/subscription/plans", subscriptionHandler.GetPlans).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/subscription/webhook", subscriptionHandler.Webhook).Methods("POST")

	// Protected routes - JWT required
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(auth.JWTMiddleware(jwtSecret))

	apiRouter.HandleFunc("/auth/me", authHandler.Me).Methods("GET", "OPTIONS")

	apiRouter.HandleFunc("/ai-config", aiconfigHandler.GetConfig).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/ai-config", aiconfigHandler.SaveConfig).Methods("POST")
	apiRouter.HandleFunc("/ai-config/models", aiconfigHandler.ListModels).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/ai-config/models", aiconfigHandler.AddCustomModel).Methods("POST")
	apiRouter.HandleFunc("/ai-config/models/{id}", aiconfigHandler.RemoveCustomModel).Methods("DELETE", "OPTIONS")

	apiRouter.HandleFunc("/generate/feature", generateHandler.GenerateFeature).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/generate/prd", generateHandler.GeneratePRD).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/generate/designer", generateHandler.GenerateDesigner).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/usage", generateHandler.GetUsage).Methods("GET", "OPTIONS")

	apiRouter.HandleFunc("/projects", projectHandler.List).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/projects", projectHandler.Create).Methods("POST")
	apiRouter.HandleFunc("/projects/{id}", projectHandler.Get).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/projects/{id}", projectHandler.Update).Methods("PUT")
	apiRouter.HandleFunc("/projects/{id}", projectHandler.Delete).Methods("DELETE")

	apiRouter.HandleFunc("/subscription/status", subscriptionHandler.GetStatus).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/subscription/checkout", subscriptionHandler.CreateCheckout).Methods("POST", "OPTIONS")

	apiRouter.HandleFunc("/quiz", quizHandler.CreateQuiz).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/quiz/my-quizzes", quizHandler.GetMyQuizzes).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/quiz/share/{code}", quizHandler.GetQuizByShareCode).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/quiz/{quizId}", quizHandler.GetQuiz).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/quiz/{quizId}", quizHandler.UpdateQuiz).Methods("PUT")
	apiRouter.HandleFunc("/quiz/{quizId}", quizHandler.DeleteQuiz).Methods("DELETE")
	apiRouter.HandleFunc("/quiz/{quizId}/check-owner", quizHandler.CheckOwner).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/quiz/{quizId}/join", quizHandler.JoinQuiz).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/quiz/{quizId}/answers", quizHandler.SubmitAnswer).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/quiz/{quizId}/ranking", quizHandler.GetRanking).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/quiz/{quizId}/answers/{answerId}/review", quizHandler.ReviewAnswer).Methods("PATCH", "OPTIONS")
	apiRouter.HandleFunc("/quiz/{quizId}/participants/{participantId}/answers", quizHandler.GetParticipantAnswers).Methods("GET", "OPTIONS")

	// WebSocket endpoint - authenticates via token query parameter
	wsRouter := router.PathPrefix("/ws").Subrouter()
	wsRouter.Use(auth.JWTMiddleware(jwtSecret))
	wsRouter.HandleFunc("/{shareCode}", wsHub.HandleWebSocket)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// WriteTimeout must outlast a slow AI provider call.
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown setup
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server shutdown gracefully")
}
