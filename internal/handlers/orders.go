package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/checkout"
	"velora_back_end/internal/config"
	"velora_back_end/internal/models"
	"velora_back_end/internal/pricing"
	"velora_back_end/internal/repository"
	"velora_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderHandler expose le cycle de vie des commandes : création, consultation,
// paiement (PayPal, Stripe, contre-remboursement), livraison et reporting.
type OrderHandler struct {
	checkout *checkout.Service
	orders   *repository.OrderRepository
	users    *repository.UserRepository
	cart     *cache.CartStore
	mailer   *utils.Mailer
	cfg      *config.Config
}

func NewOrderHandler(checkoutSvc *checkout.Service, orders *repository.OrderRepository, users *repository.UserRepository, cart *cache.CartStore, mailer *utils.Mailer, cfg *config.Config) *OrderHandler {
	return &OrderHandler{
		checkout: checkoutSvc,
		orders:   orders,
		users:    users,
		cart:     cart,
		mailer:   mailer,
		cfg:      cfg,
	}
}

// ================== CRÉATION ==================

type orderItemInput struct {
	Product string `json:"product" binding:"required"`
	Qty     int    `json:"qty" binding:"required"`
}

type createOrderInput struct {
	OrderItems      []orderItemInput       `json:"orderItems" binding:"required"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required"`
}

// Create valide le panier et crée la commande. Les prix soumis par le client
// sont ignorés : tout est re-tarifé côté serveur.
func (h *OrderHandler) Create(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiant utilisateur invalide"})
		return
	}

	var input createOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requested := make([]checkout.RequestedItem, 0, len(input.OrderItems))
	for _, item := range input.OrderItems {
		productID, err := primitive.ObjectIDFromHex(item.Product)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant produit invalide : " + item.Product})
			return
		}
		requested = append(requested, checkout.RequestedItem{ProductID: productID, Qty: item.Qty})
	}

	order, err := h.checkout.CreateOrder(c.Request.Context(), userID, requested, input.ShippingAddress, input.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyOrder):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun article dans la commande"})
		case errors.Is(err, checkout.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide (minimum 1)"})
		case errors.Is(err, checkout.ErrInvalidPaymentMethod):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Méthode de paiement inconnue"})
		case errors.Is(err, pricing.ErrInvalidLine):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Ligne de commande invalide"})
		case errors.Is(err, repository.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		case errors.Is(err, repository.ErrInsufficientStock):
			c.JSON(http.StatusConflict, gin.H{"error": "Stock insuffisant"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	// Le panier Redis a été converti en commande : on le vide
	if err := h.cart.Clear(c.Request.Context(), userID.Hex()); err != nil {
		log.Println("⚠️ Impossible de vider le panier :", err)
	}

	c.JSON(http.StatusCreated, order)
}

// ================== CONSULTATION ==================

func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orders.FindAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) Mine(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiant utilisateur invalide"})
		return
	}

	orders, err := h.orders.FindByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// Get retourne une commande : son propriétaire ou un admin uniquement.
func (h *OrderHandler) Get(c *gin.Context) {
	order, ok := h.loadOwnedOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) loadOwnedOrder(c *gin.Context) (*models.Order, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return nil, false
	}

	order, err := h.orders.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return nil, false
	}

	if order.User.Hex() != c.GetString("user_id") && !c.GetBool("is_admin") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette commande ne vous appartient pas"})
		return nil, false
	}
	return order, true
}

// ================== PAIEMENT ==================

// PayWithPayPal acte une capture PayPal réalisée côté client.
func (h *OrderHandler) PayWithPayPal(c *gin.Context) {
	order, ok := h.loadOwnedOrder(c)
	if !ok {
		return
	}

	var conf checkout.PayPalConfirmation
	if err := c.ShouldBindJSON(&conf); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paid, err := h.checkout.ProcessPayPalPayment(c.Request.Context(), order.ID, conf)
	if err != nil {
		h.paymentError(c, err)
		return
	}

	h.sendConfirmationAsync(paid)
	c.JSON(http.StatusOK, paid)
}

// PayWithStripe encaisse la commande via un PaymentIntent confirmé serveur.
func (h *OrderHandler) PayWithStripe(c *gin.Context) {
	order, ok := h.loadOwnedOrder(c)
	if !ok {
		return
	}

	var input struct {
		PaymentMethodID string `json:"paymentMethodId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paid, err := h.checkout.ProcessStripePayment(c.Request.Context(), order.ID, input.PaymentMethodID)
	if err != nil {
		h.paymentError(c, err)
		return
	}

	h.sendConfirmationAsync(paid)
	c.JSON(http.StatusOK, paid)
}

// PayCashOnDelivery bascule la commande en paiement à la livraison. Elle
// reste impayée : le règlement sera acté à la remise.
func (h *OrderHandler) PayCashOnDelivery(c *gin.Context) {
	order, ok := h.loadOwnedOrder(c)
	if !ok {
		return
	}

	updated, err := h.checkout.ProcessCashOnDelivery(c.Request.Context(), order.ID)
	if err != nil {
		h.paymentError(c, err)
		return
	}

	h.sendConfirmationAsync(updated)
	c.JSON(http.StatusOK, updated)
}

func (h *OrderHandler) paymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
	case errors.Is(err, repository.ErrOrderAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": "Commande déjà payée"})
	case errors.Is(err, checkout.ErrPaymentFailed):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Échec du paiement : " + err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// sendConfirmationAsync envoie l'e-mail de confirmation avec la facture PDF
// en pièce jointe, sans bloquer la réponse HTTP.
func (h *OrderHandler) sendConfirmationAsync(order *models.Order) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := h.users.FindByID(ctx, order.User)
		if err != nil {
			log.Println("⚠️ E-mail de confirmation non envoyé, utilisateur introuvable :", err)
			return
		}

		pdf, err := utils.GenerateInvoicePDF(h.cfg, order)
		if err != nil {
			log.Println("⚠️ Facture PDF non générée :", err)
			pdf = nil
		}

		if err := h.mailer.SendOrderConfirmation(user.Email, order, pdf); err != nil {
			log.Println("❌ Erreur envoi e-mail de confirmation :", err)
		}
	}()
}

// ================== LIVRAISON / ADMIN ==================

func (h *OrderHandler) Deliver(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	order, err := h.checkout.MarkDelivered(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		case errors.Is(err, repository.ErrOrderAlreadyDelivered):
			c.JSON(http.StatusConflict, gin.H{"error": "Commande déjà livrée"})
		case errors.Is(err, repository.ErrOrderNotEligible):
			c.JSON(http.StatusConflict, gin.H{"error": "Commande non payée : livraison refusée"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commande supprimée"})
}

// ================== REPORTING ==================

func (h *OrderHandler) TotalOrders(c *gin.Context) {
	count, err := h.orders.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"totalOrders": count})
}

func (h *OrderHandler) TotalSales(c *gin.Context) {
	total, err := h.orders.SumTotalPrice(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"totalSales": total})
}

// TotalSalesByDate : chiffre d'affaires par jour, commandes payées seulement.
func (h *OrderHandler) TotalSalesByDate(c *gin.Context) {
	sales, err := h.orders.SalesByDate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sales)
}
