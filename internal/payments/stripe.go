// Package payments contient les adaptateurs vers les prestataires de
// paiement. Le workflow ne voit que l'interface PaymentCharger.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"

	"velora_back_end/internal/models"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/client"
	"github.com/stripe/stripe-go/v83/webhook"
)

// StripeClient encaisse les commandes via des PaymentIntents confirmés côté
// serveur. La clé secrète est injectée — pas de clé globale stripe.Key.
type StripeClient struct {
	api           *client.API
	webhookSecret string
}

func NewStripeClient(secretKey, webhookSecret string) (*StripeClient, error) {
	if secretKey == "" {
		return nil, errors.New("clé secrète Stripe manquante")
	}
	return &StripeClient{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}, nil
}

// Charge crée et confirme un PaymentIntent pour le montant total de la
// commande. Le montant vient de la commande persistée, jamais du client.
func (s *StripeClient) Charge(ctx context.Context, order *models.Order, paymentMethodID string) (models.PaymentResult, error) {
	params := &stripe.PaymentIntentParams{
		Params:        stripe.Params{Context: ctx},
		Amount:        stripe.Int64(int64(math.Round(order.TotalPrice * 100))),
		Currency:      stripe.String("eur"),
		PaymentMethod: stripe.String(paymentMethodID),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String("Commande " + order.ID.Hex()),
		Metadata: map[string]string{
			"order_id": order.ID.Hex(),
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return models.PaymentResult{}, fmt.Errorf("stripe: %v", err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return models.PaymentResult{}, fmt.Errorf("stripe: PaymentIntent %s en statut %s", intent.ID, intent.Status)
	}

	log.Printf("💳 PaymentIntent confirmé : %s (%.2f€)", intent.ID, order.TotalPrice)

	return models.PaymentResult{
		ID:     intent.ID,
		Status: string(intent.Status),
	}, nil
}

// VerifyWebhook valide la signature d'un webhook Stripe. Sans secret
// configuré (mode test), le payload est accepté tel quel.
func (s *StripeClient) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	if s.webhookSecret == "" {
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET — mode test")
		var event stripe.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return stripe.Event{}, fmt.Errorf("webhook JSON invalide: %v", err)
		}
		return event, nil
	}
	return webhook.ConstructEvent(payload, signature, s.webhookSecret)
}
