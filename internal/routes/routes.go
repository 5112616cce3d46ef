package routes

import (
	"time"

	"velora_back_end/internal/handlers"
	"velora_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers regroupe tout ce que le routeur doit connaître.
type Handlers struct {
	Auth     *handlers.AuthHandler
	OAuth    *handlers.OAuthHandler
	Users    *handlers.UserHandler
	Products *handlers.ProductHandler
	Orders   *handlers.OrderHandler
	Cart     *handlers.CartHandler
	Upload   *handlers.UploadHandler
	Webhook  *handlers.WebhookHandler

	RateLimiter *middleware.RateLimiter
	JWTSecret   string
}

func RegisterRoutes(r *gin.Engine, h *Handlers) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	auth := middleware.AuthRequired(h.JWTSecret)
	admin := middleware.RequireAdmin

	api := r.Group("/api")
	api.Use(h.RateLimiter.API())

	// --- Auth locale + OAuth ---
	api.POST("/users/register", h.RateLimiter.Register(), h.Auth.Register)
	api.POST("/users/login", h.RateLimiter.Login(), h.Auth.Login)
	api.POST("/users/logout", h.Auth.Logout)
	api.GET("/users/profile", auth, h.Auth.Profile)
	api.PUT("/users/profile", auth, h.Auth.UpdateProfile)
	api.GET("/auth/:provider", h.OAuth.BeginAuth)
	api.GET("/auth/:provider/callback", h.OAuth.CallbackAuth)

	// --- Favoris ---
	api.GET("/users/favorites", auth, h.Users.GetFavorites)
	api.POST("/users/favorites", auth, h.Users.SaveFavorites)

	// --- Administration des utilisateurs ---
	api.GET("/users", auth, admin, h.Users.List)
	api.GET("/users/:id", auth, admin, h.Users.Get)
	api.PUT("/users/:id", auth, admin, h.Users.Update)
	api.DELETE("/users/:id", auth, admin, h.Users.Delete)

	// --- Catalogue ---
	api.GET("/products", h.Products.List)
	api.GET("/products/top", h.Products.Top)
	api.GET("/products/new", h.Products.Newest)
	api.GET("/products/random", h.Products.Random)
	api.GET("/products/filter", h.Products.Filter)
	api.GET("/products/search", h.RateLimiter.Search(), h.Products.Search)
	api.GET("/products/:id", h.Products.Get)
	api.POST("/products", auth, admin, h.Products.Create)
	api.PUT("/products/:id", auth, admin, h.Products.Update)
	api.DELETE("/products/:id", auth, admin, h.Products.Delete)
	api.POST("/products/:id/reviews", auth, h.Products.AddReview)

	// --- Commandes ---
	api.POST("/orders", auth, h.Orders.Create)
	api.GET("/orders", auth, admin, h.Orders.List)
	api.GET("/orders/mine", auth, h.Orders.Mine)
	api.GET("/orders/total-orders", auth, admin, h.Orders.TotalOrders)
	api.GET("/orders/total-sales", auth, admin, h.Orders.TotalSales)
	api.GET("/orders/total-sales-by-date", auth, admin, h.Orders.TotalSalesByDate)
	api.GET("/orders/:id", auth, h.Orders.Get)
	api.PUT("/orders/:id/pay", auth, h.Orders.PayWithPayPal)
	api.POST("/orders/:id/stripe-pay", auth, h.Orders.PayWithStripe)
	api.POST("/orders/:id/cod-pay", auth, h.Orders.PayCashOnDelivery)
	api.PUT("/orders/:id/deliver", auth, admin, h.Orders.Deliver)
	api.DELETE("/orders/:id", auth, admin, h.Orders.Delete)

	// --- Panier ---
	api.GET("/cart", auth, h.Cart.Get)
	api.POST("/cart", auth, h.Cart.Save)
	api.DELETE("/cart", auth, h.Cart.Clear)

	// --- Upload d'images ---
	api.POST("/upload", auth, admin, h.Upload.UploadImage)

	// --- Webhook Stripe (signé, pas de JWT) ---
	api.POST("/payments/webhook", h.Webhook.HandleStripe)
}
