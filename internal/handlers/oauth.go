package handlers

import (
	"context"
	"net/http"

	"velora_back_end/internal/config"
	"velora_back_end/internal/repository"
	"velora_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"
)

type ctxKey string

const providerKey ctxKey = "provider"

// OAuthHandler gère les logins sociaux via goth. Le compte est retrouvé ou
// créé par email au callback, puis un JWT interne est émis comme pour un
// login local.
type OAuthHandler struct {
	users *repository.UserRepository
	cfg   *config.Config
}

func NewOAuthHandler(users *repository.UserRepository, cfg *config.Config) *OAuthHandler {
	return &OAuthHandler{users: users, cfg: cfg}
}

func (h *OAuthHandler) BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	c.Request = c.Request.WithContext(
		context.WithValue(c.Request.Context(), providerKey, provider),
	)

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

func (h *OAuthHandler) CallbackAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	c.Request = c.Request.WithContext(
		context.WithValue(c.Request.Context(), providerKey, provider),
	)

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := gothUser.Name
	if name == "" {
		name = gothUser.NickName
	}
	user, err := h.users.UpsertOAuth(c.Request.Context(), provider, gothUser.Email, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, err := utils.GenerateJWT(h.cfg.JWTSecret, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
