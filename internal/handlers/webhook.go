package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"velora_back_end/internal/checkout"
	"velora_back_end/internal/models"
	"velora_back_end/internal/payments"
	"velora_back_end/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WebhookHandler traite les notifications asynchrones de Stripe. Seul
// payment_intent.succeeded nous intéresse : il acte le paiement de la
// commande référencée dans les metadata.
type WebhookHandler struct {
	stripe   *payments.StripeClient
	checkout *checkout.Service
}

func NewWebhookHandler(stripeClient *payments.StripeClient, checkoutSvc *checkout.Service) *WebhookHandler {
	return &WebhookHandler{stripe: stripeClient, checkout: checkoutSvc}
}

func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps de requête illisible"})
		return
	}

	event, err := h.stripe.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Println("❌ Signature webhook Stripe invalide :", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}

	if event.Type != "payment_intent.succeeded" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Événement Stripe illisible"})
		return
	}

	orderID, err := primitive.ObjectIDFromHex(intent.Metadata["order_id"])
	if err != nil {
		log.Println("⚠️ Webhook Stripe sans order_id exploitable :", intent.ID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	_, err = h.checkout.MarkPaid(c.Request.Context(), orderID, models.PaymentResult{
		ID:     intent.ID,
		Status: string(intent.Status),
	})
	if err != nil {
		// Déjà payée : le endpoint de paiement synchrone est passé avant nous
		if errors.Is(err, repository.ErrOrderAlreadyPaid) {
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		log.Println("❌ Webhook Stripe, échec MarkPaid :", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
