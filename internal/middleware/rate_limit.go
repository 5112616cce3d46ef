package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// Limites par endpoint
	LoginMaxAttempts    = 5
	RegisterMaxAttempts = 3
	APIMaxRequests      = 100 // Par minute pour les endpoints généraux
	SearchMaxRequests   = 30

	// Durées de cooldown
	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
	APICooldown      = 1 * time.Minute
)

// RateLimiter regroupe les middlewares de rate limit, adossés à Redis
type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{redis: rdb}
}

// Login limite les tentatives de connexion par email
func (rl *RateLimiter) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Lire le body sans le consommer
		bodyBytes, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := context.Background()
		key := "login_attempts:" + input.Email
		cooldownKey := "login_cooldown:" + input.Email

		if rl.redis.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := rl.redis.TTL(ctx, cooldownKey).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(ttl.Minutes())),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		attempts, _ := rl.redis.Get(ctx, key).Int()
		if attempts >= LoginMaxAttempts {
			rl.redis.Set(ctx, cooldownKey, "1", LoginCooldown)
			rl.redis.Del(ctx, key)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Compte bloqué pendant %d minutes", int(LoginCooldown.Minutes())),
				"retry_after": int(LoginCooldown.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()

		// Login échoué : incrémenter. Réussi : remettre les compteurs à zéro.
		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			rl.redis.Incr(ctx, key)
			rl.redis.Expire(ctx, key, LoginCooldown)
		case http.StatusOK:
			rl.redis.Del(ctx, key)
			rl.redis.Del(ctx, cooldownKey)
		}
	}
}

// Register limite les inscriptions par IP
func (rl *RateLimiter) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		ip := c.ClientIP()
		key := "register_attempts:" + ip
		cooldownKey := "register_cooldown:" + ip

		if rl.redis.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := rl.redis.TTL(ctx, cooldownKey).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop d'inscriptions. Réessayez dans %d minutes", int(ttl.Minutes())),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		attempts, _ := rl.redis.Get(ctx, key).Int()
		if attempts >= RegisterMaxAttempts {
			rl.redis.Set(ctx, cooldownKey, "1", RegisterCooldown)
			rl.redis.Del(ctx, key)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop d'inscriptions. Réessayez dans %d minutes", int(RegisterCooldown.Minutes())),
				"retry_after": int(RegisterCooldown.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusCreated {
			rl.redis.Incr(ctx, key)
			rl.redis.Expire(ctx, key, RegisterCooldown)
		}
	}
}

// API limite le nombre de requêtes par IP (général)
func (rl *RateLimiter) API() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		key := "api_requests:" + c.ClientIP()

		requests, _ := rl.redis.Get(ctx, key).Int()
		if requests >= APIMaxRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez dans 1 minute",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		pipe := rl.redis.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, APICooldown)
		pipe.Exec(ctx)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", APIMaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", APIMaxRequests-requests-1))

		c.Next()
	}
}

// Search limite les recherches par IP (anti-spam)
func (rl *RateLimiter) Search() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		key := "search_requests:" + c.ClientIP()

		requests, _ := rl.redis.Get(ctx, key).Int()
		if requests >= SearchMaxRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de recherches. Réessayez dans 1 minute",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		pipe := rl.redis.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, APICooldown)
		pipe.Exec(ctx)

		c.Next()
	}
}
