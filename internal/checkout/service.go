// Package checkout orchestre le cycle de vie d'une commande : validation du
// panier contre le catalogue, re-tarification côté serveur, création, puis
// transitions de paiement et de livraison.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"velora_back_end/internal/models"
	"velora_back_end/internal/pricing"
	"velora_back_end/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrEmptyOrder           = errors.New("aucun article dans la commande")
	ErrInvalidQuantity      = errors.New("quantité invalide (minimum 1)")
	ErrInvalidPaymentMethod = errors.New("méthode de paiement inconnue")

	// ErrPaymentFailed : le prestataire a refusé ou renvoyé une confirmation
	// invalide. La commande reste impayée — jamais d'état intermédiaire.
	ErrPaymentFailed = errors.New("échec du paiement")
)

// OrderStore est le contrat de persistance des commandes consommé par le
// workflow. Les transitions d'état sont atomiques côté store.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID, result models.PaymentResult, at time.Time) (*models.Order, error)
	MarkDelivered(ctx context.Context, id primitive.ObjectID, at time.Time, settleCOD bool) (*models.Order, error)
	SetCashOnDelivery(ctx context.Context, id primitive.ObjectID, ref string) (*models.Order, error)
}

// ProductStore est la surface catalogue nécessaire au checkout : relire les
// prix et réserver le stock.
type ProductStore interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

// PaymentCharger encaisse une commande auprès d'un prestataire externe et
// retourne le reçu normalisé.
type PaymentCharger interface {
	Charge(ctx context.Context, order *models.Order, paymentMethodID string) (models.PaymentResult, error)
}

// RequestedItem est une ligne soumise par le client. Seuls l'identifiant
// produit et la quantité font foi — un prix éventuel est ignoré.
type RequestedItem struct {
	ProductID primitive.ObjectID
	Qty       int
}

// PayPalConfirmation est la capture PayPal réalisée côté client, transmise
// telle quelle par le front.
type PayPalConfirmation struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time"`
	PayerEmail string `json:"email_address"`
}

type Service struct {
	orders   OrderStore
	products ProductStore
	charger  PaymentCharger
	now      func() time.Time
}

func NewService(orders OrderStore, products ProductStore, charger PaymentCharger) *Service {
	return &Service{
		orders:   orders,
		products: products,
		charger:  charger,
		now:      time.Now,
	}
}

// CreateOrder valide le panier, recopie les prix du catalogue, calcule les
// montants, réserve le stock puis persiste la commande. Tout-ou-rien : un
// produit manquant ou un stock insuffisant annule l'ensemble.
func (s *Service) CreateOrder(ctx context.Context, userID primitive.ObjectID, requested []RequestedItem, addr models.ShippingAddress, paymentMethod string) (*models.Order, error) {
	if len(requested) == 0 {
		return nil, ErrEmptyOrder
	}
	switch paymentMethod {
	case models.PaymentMethodPayPal, models.PaymentMethodStripe, models.PaymentMethodCashOnDelivery:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, paymentMethod)
	}
	for _, item := range requested {
		if item.Qty < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	ids := make([]primitive.ObjectID, 0, len(requested))
	seen := make(map[primitive.ObjectID]bool, len(requested))
	for _, item := range requested {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Lignes de confiance serveur : prix, nom et image recopiés du catalogue
	items := make([]models.OrderItem, 0, len(requested))
	lines := make([]pricing.Line, 0, len(requested))
	for _, item := range requested {
		p, ok := catalog[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", repository.ErrProductNotFound, item.ProductID.Hex())
		}
		items = append(items, models.OrderItem{
			Product: p.ID,
			Name:    p.Name,
			Qty:     item.Qty,
			Price:   p.Price,
			Image:   p.Image,
		})
		lines = append(lines, pricing.Line{Price: p.Price, Qty: item.Qty})
	}

	totals, err := pricing.Compute(lines)
	if err != nil {
		return nil, err
	}

	// Réservation du stock, ligne par ligne, avec compensation si une
	// décrémentation échoue en cours de route
	reserved := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if err := s.products.DecrementStock(ctx, item.Product, item.Qty); err != nil {
			s.releaseStock(ctx, reserved)
			return nil, err
		}
		reserved = append(reserved, item)
	}

	order := &models.Order{
		User:            userID,
		Items:           items,
		ShippingAddress: addr,
		PaymentMethod:   paymentMethod,
		ItemsPrice:      totals.ItemsPrice,
		ShippingPrice:   totals.ShippingPrice,
		TaxPrice:        totals.TaxPrice,
		TotalPrice:      totals.TotalPrice,
		IsPaid:          false,
		IsDelivered:     false,
		CreatedAt:       s.now(),
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		s.releaseStock(ctx, reserved)
		return nil, err
	}

	log.Printf("📦 Commande %s créée (%d articles, %.2f€)", created.ID.Hex(), len(items), created.TotalPrice)
	return created, nil
}

// releaseStock rend le stock déjà réservé d'un checkout avorté.
func (s *Service) releaseStock(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := s.products.IncrementStock(ctx, item.Product, item.Qty); err != nil {
			log.Printf("⚠️ Compensation stock échouée pour %s: %v", item.Product.Hex(), err)
		}
	}
}

// MarkPaid acte le paiement d'une commande avec un reçu déjà normalisé.
// La transition est conditionnelle : une commande déjà payée n'est jamais
// écrasée.
func (s *Service) MarkPaid(ctx context.Context, orderID primitive.ObjectID, result models.PaymentResult) (*models.Order, error) {
	order, err := s.orders.MarkPaid(ctx, orderID, result, s.now())
	if err != nil {
		return nil, err
	}
	log.Printf("💳 Commande %s payée (%s)", order.ID.Hex(), result.ID)
	return order, nil
}

// ProcessPayPalPayment normalise une capture PayPal transmise par le client
// et acte le paiement. Une capture non aboutie laisse la commande impayée.
func (s *Service) ProcessPayPalPayment(ctx context.Context, orderID primitive.ObjectID, conf PayPalConfirmation) (*models.Order, error) {
	if conf.ID == "" {
		return nil, fmt.Errorf("%w: reçu PayPal sans identifiant de transaction", ErrPaymentFailed)
	}
	if !strings.EqualFold(conf.Status, "COMPLETED") {
		return nil, fmt.Errorf("%w: capture PayPal en statut %q", ErrPaymentFailed, conf.Status)
	}

	return s.MarkPaid(ctx, orderID, models.PaymentResult{
		ID:         conf.ID,
		Status:     conf.Status,
		UpdateTime: conf.UpdateTime,
		Email:      conf.PayerEmail,
	})
}

// ProcessStripePayment encaisse la commande via Stripe puis acte le
// paiement. En cas de refus du prestataire, aucun champ de la commande
// n'est modifié.
func (s *Service) ProcessStripePayment(ctx context.Context, orderID primitive.ObjectID, paymentMethodID string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, repository.ErrOrderAlreadyPaid
	}

	result, err := s.charger.Charge(ctx, order, paymentMethodID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	return s.MarkPaid(ctx, orderID, result)
}

// ProcessCashOnDelivery bascule la commande en paiement à la livraison.
// Décision : la commande N'est PAS marquée payée ici — le règlement est acté
// au moment de la remise, par MarkDelivered.
func (s *Service) ProcessCashOnDelivery(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.SetCashOnDelivery(ctx, orderID, "COD-"+uuid.NewString())
	if err != nil {
		return nil, err
	}
	log.Printf("📦 Commande %s en paiement à la livraison", order.ID.Hex())
	return order, nil
}

// MarkDelivered acte la livraison. Une commande impayée n'est livrable que
// si elle est en paiement à la livraison ; son règlement est alors acté dans
// la même mise à jour.
func (s *Service) MarkDelivered(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsDelivered {
		return nil, repository.ErrOrderAlreadyDelivered
	}
	if !order.DeliveryEligible() {
		return nil, repository.ErrOrderNotEligible
	}

	settleCOD := order.PaymentMethod == models.PaymentMethodCashOnDelivery && !order.IsPaid
	delivered, err := s.orders.MarkDelivered(ctx, orderID, s.now(), settleCOD)
	if err != nil {
		return nil, err
	}
	log.Printf("🚚 Commande %s livrée", delivered.ID.Hex())
	return delivered, nil
}
