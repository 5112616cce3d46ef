package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/catalog"
	"velora_back_end/internal/checkout"
	"velora_back_end/internal/config"
	"velora_back_end/internal/database"
	"velora_back_end/internal/handlers"
	"velora_back_end/internal/middleware"
	"velora_back_end/internal/payments"
	"velora_back_end/internal/repository"
	"velora_back_end/internal/routes"
	"velora_back_end/internal/search"
	"velora_back_end/internal/storage"
	"velora_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	conns, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("❌ Connexion aux bases de données : ", err)
	}
	defer conns.Close(ctx)

	stripeClient, err := payments.NewStripeClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if err != nil {
		log.Fatal("❌ Impossible d'initialiser Stripe : ", err)
	}
	log.Println("✅ Stripe initialisé")

	initOAuthProviders(cfg)

	// Repositories
	orderRepo := repository.NewOrderRepository(conns.Mongo)
	productRepo := repository.NewProductRepository(conns.Mongo)
	userRepo := repository.NewUserRepository(conns.Mongo)

	// Services
	checkoutSvc := checkout.NewService(orderRepo, productRepo, stripeClient)
	reviewSvc := catalog.NewReviewService(productRepo)
	productCache := cache.NewProductCache(conns.Redis)
	cartStore := cache.NewCartStore(conns.Redis)
	indexer := search.NewIndexer(conns.Elastic)
	objectStore := storage.NewObjectStore(conns.MinIO, cfg)
	mailer := utils.NewMailer(cfg)

	h := &routes.Handlers{
		Auth:     handlers.NewAuthHandler(userRepo, cfg),
		OAuth:    handlers.NewOAuthHandler(userRepo, cfg),
		Users:    handlers.NewUserHandler(userRepo),
		Products: handlers.NewProductHandler(productRepo, reviewSvc, productCache, indexer),
		Orders:   handlers.NewOrderHandler(checkoutSvc, orderRepo, userRepo, cartStore, mailer, cfg),
		Cart:     handlers.NewCartHandler(cartStore),
		Upload:   handlers.NewUploadHandler(objectStore),
		Webhook:  handlers.NewWebhookHandler(stripeClient, checkoutSvc),

		RateLimiter: middleware.NewRateLimiter(conns.Redis),
		JWTSecret:   cfg.JWTSecret,
	}

	r := gin.Default()
	routes.RegisterRoutes(r, h)

	log.Println("🚀 Serveur Velora lancé sur le port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("❌ Serveur arrêté : ", err)
	}
}

func initOAuthProviders(cfg *config.Config) {
	if cfg.SessionSecret == "" {
		log.Println("⚠️ SESSION_SECRET manquant — OAuth désactivé")
		return
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(86400 * 30)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   false, // à passer à true derrière HTTPS
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	gothic.GetProviderName = func(req *http.Request) (string, error) {
		if provider := req.URL.Query().Get("provider"); provider != "" {
			return provider, nil
		}
		if provider := req.FormValue("provider"); provider != "" {
			return provider, nil
		}
		return "", errors.New("provider not found")
	}

	var providers []goth.Provider

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers = append(providers, google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.BaseURL+"/api/auth/google/callback",
		))
		log.Println("✅ Google OAuth activé")
	}

	if cfg.FacebookClientID != "" && cfg.FacebookClientSecret != "" {
		providers = append(providers, facebook.New(
			cfg.FacebookClientID,
			cfg.FacebookClientSecret,
			cfg.BaseURL+"/api/auth/facebook/callback",
		))
		log.Println("✅ Facebook OAuth activé")
	}

	if len(providers) == 0 {
		log.Println("⚠️ Aucun provider OAuth configuré")
		return
	}

	goth.UseProviders(providers...)
	log.Printf("✅ %d OAuth provider(s) initialisé(s)", len(providers))
}
