package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Méthodes de paiement acceptées au checkout
const (
	PaymentMethodPayPal         = "PayPal"
	PaymentMethodStripe         = "Stripe"
	PaymentMethodCashOnDelivery = "CashOnDelivery"
)

// OrderItem est une ligne de commande. Le prix est TOUJOURS recopié depuis le
// catalogue au moment de la création — jamais repris du client.
type OrderItem struct {
	Product primitive.ObjectID `bson:"product" json:"product"`
	Name    string             `bson:"name" json:"name"`
	Qty     int                `bson:"qty" json:"qty"`
	Price   float64            `bson:"price" json:"price"`
	Image   string             `bson:"image" json:"image"`
}

type ShippingAddress struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postal_code" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// PaymentResult est le reçu opaque renvoyé par le prestataire de paiement
// (PayPal, Stripe) ou la référence interne pour le paiement à la livraison.
type PaymentResult struct {
	ID         string `bson:"id" json:"id"`
	Status     string `bson:"status" json:"status"`
	UpdateTime string `bson:"update_time,omitempty" json:"update_time,omitempty"`
	Email      string `bson:"email_address,omitempty" json:"email_address,omitempty"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	Items           []OrderItem        `bson:"order_items" json:"orderItems"`
	ShippingAddress ShippingAddress    `bson:"shipping_address" json:"shippingAddress"`
	PaymentMethod   string             `bson:"payment_method" json:"paymentMethod"`

	// Montants dérivés, calculés une seule fois à la création par le moteur de prix
	ItemsPrice    float64 `bson:"items_price" json:"itemsPrice"`
	ShippingPrice float64 `bson:"shipping_price" json:"shippingPrice"`
	TaxPrice      float64 `bson:"tax_price" json:"taxPrice"`
	TotalPrice    float64 `bson:"total_price" json:"totalPrice"`

	IsPaid        bool           `bson:"is_paid" json:"isPaid"`
	PaidAt        *time.Time     `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	PaymentResult *PaymentResult `bson:"payment_result,omitempty" json:"paymentResult,omitempty"`

	IsDelivered bool       `bson:"is_delivered" json:"isDelivered"`
	DeliveredAt *time.Time `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// DeliveryEligible indique si la commande peut passer à l'état "livrée" :
// payée, ou paiement à la livraison (réglé au moment de la remise).
func (o *Order) DeliveryEligible() bool {
	return o.IsPaid || o.PaymentMethod == PaymentMethodCashOnDelivery
}

// DailySales est une ligne du rapport de ventes par jour (commandes payées
// uniquement, regroupées par date calendaire de paid_at).
type DailySales struct {
	Date       string  `bson:"_id" json:"date"`
	TotalSales float64 `bson:"total_sales" json:"totalSales"`
}
