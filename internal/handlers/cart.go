package handlers

import (
	"net/http"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/models"

	"github.com/gin-gonic/gin"
)

// CartHandler persiste le panier des utilisateurs connectés dans Redis
type CartHandler struct {
	cart *cache.CartStore
}

func NewCartHandler(cart *cache.CartStore) *CartHandler {
	return &CartHandler{cart: cart}
}

func (h *CartHandler) Get(c *gin.Context) {
	items, err := h.cart.Get(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *CartHandler) Save(c *gin.Context) {
	var input struct {
		Items []models.CartItem `json:"items"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, item := range input.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Article de panier invalide"})
			return
		}
	}

	if err := h.cart.Save(c.Request.Context(), c.GetString("user_id"), input.Items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": input.Items})
}

func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), c.GetString("user_id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé"})
}
