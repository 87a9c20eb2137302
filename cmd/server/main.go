package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/database"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/handlers"
	customMiddleware "github.com/farelkdhfi/magessa-bappelitbangda-be/internal/middleware"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/notify"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/repository"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env (ignore error in production, env vars set directly)
	_ = godotenv.Load()

	// Required env vars
	mongoURI := getEnv("MONGODB_URI", "")
	dbName := getEnv("DB_NAME", "magessa")
	jwtSecret := getEnv("JWT_SECRET", "")
	port := getEnv("PORT", "8080")
	supabaseURL := getEnv("SUPABASE_URL", "")
	supabaseKey := getEnv("SUPABASE_SERVICE_KEY", "")
	bucket := getEnv("STORAGE_BUCKET", "surat-photos")

	if mongoURI == "" {
		log.Fatal("❌ MONGODB_URI is required")
	}
	if jwtSecret == "" {
		log.Fatal("❌ JWT_SECRET is required")
	}
	if supabaseURL == "" || supabaseKey == "" {
		log.Fatal("❌ SUPABASE_URL and SUPABASE_SERVICE_KEY are required")
	}

	// Connect to MongoDB
	if err := database.Connect(mongoURI, dbName); err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepo()
	disposisiRepo := repository.NewDisposisiRepo()
	feedbackRepo := repository.NewFeedbackRepo()
	fileRepo := repository.NewFeedbackFileRepo()
	statusLogRepo := repository.NewStatusLogRepo()

	// Ensure indexes
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := feedbackRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create feedback indexes: %v", err)
	}
	if err := fileRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create feedback file indexes: %v", err)
	}
	if err := statusLogRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create status log indexes: %v", err)
	}

	// Object storage for attachments
	uploads := storage.NewSupabase(supabaseURL, supabaseKey, bucket)

	// Feedback notifications: email when Resend is configured, log otherwise
	var notifier notify.Notifier = notify.NewLogNotifier()
	if apiKey := os.Getenv("RESEND_API_KEY"); apiKey != "" {
		from := getEnv("FROM_EMAIL", "")
		to := getEnv("FEEDBACK_NOTIFY_EMAIL", "")
		if from != "" && to != "" {
			notifier = notify.NewEmailNotifier(apiKey, from, to)
		}
	}

	// Initialize handlers
	bawahanHandler := handlers.NewBawahanFeedbackHandler(userRepo, disposisiRepo, feedbackRepo, fileRepo, statusLogRepo, uploads, notifier)
	atasanHandler := handlers.NewAtasanFeedbackHandler(userRepo, disposisiRepo, feedbackRepo, fileRepo, statusLogRepo, uploads, notifier)
	kepalaHandler := handlers.NewKepalaFeedbackHandler(disposisiRepo, feedbackRepo, fileRepo, uploads)

	// Setup chi router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"magessa-bappelitbangda-be"}`))
	})

	// All feedback routes require an authenticated session
	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.JWTAuth(jwtSecret))

		// Subordinate endpoints
		r.Post("/bawahan/disposisi/{disposisiId}/feedback", bawahanHandler.Create)
		r.Get("/bawahan/feedback", bawahanHandler.List)
		r.Get("/bawahan/feedback/file/{fileId}", bawahanHandler.GetFile)
		r.Get("/bawahan/feedback/{feedbackId}/edit", bawahanHandler.GetEdit)
		r.Put("/bawahan/feedback/{feedbackId}", bawahanHandler.Edit)

		// Superior endpoints (role = user|sekretaris)
		r.Get("/atasan/feedback/file/{fileId}", atasanHandler.GetFile)
		r.Delete("/atasan/feedback/file/{fileId}", atasanHandler.DeleteFile)
		r.Get("/atasan/{role}/feedback", atasanHandler.List)
		r.Post("/atasan/{role}/disposisi/{disposisiId}/feedback", atasanHandler.Create)
		r.Get("/atasan/{role}/disposisi/{disposisiId}/feedback-bawahan", atasanHandler.FeedbackFromBawahan)
		r.Get("/atasan/{role}/feedback/{feedbackId}/edit", atasanHandler.GetEdit)
		r.Put("/atasan/{role}/feedback/{feedbackId}", atasanHandler.Edit)

		// Privileged aggregate views (kepala/admin)
		r.Get("/kepala/feedback", kepalaHandler.List)
		r.Get("/kepala/feedback/file/{fileId}", kepalaHandler.GetFile)
		r.Get("/kepala/feedback/{id}", kepalaHandler.Detail)
	})

	// Start server
	log.Printf("🚀 Feedback disposisi service starting on port %s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
