package utils

import (
	"strings"
	"testing"
	"time"

	"velora_back_end/internal/config"
	"velora_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func invoiceTestOrder() *models.Order {
	return &models.Order{
		ID: primitive.NewObjectID(),
		Items: []models.OrderItem{
			{Name: "Clavier mécanique", Qty: 2, Price: 89.90},
			{Name: "Souris sans fil", Qty: 1, Price: 45.00},
		},
		ShippingAddress: models.ShippingAddress{
			Address:    "12 rue des Lilas",
			City:       "Bruxelles",
			PostalCode: "1000",
			Country:    "Belgique",
		},
		ItemsPrice:    224.80,
		ShippingPrice: 0,
		TaxPrice:      33.72,
		TotalPrice:    258.52,
		CreatedAt:     time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestGenerateSepaQR(t *testing.T) {
	qr, err := GenerateSepaQR("BE12345678901234", "KREDBEBB", "Velora SRL", "FACT-123", 258.52)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(qr, "data:image/png;base64,"))
}

func TestInvoiceHTML_ContainsTotals(t *testing.T) {
	cfg := &config.Config{CompanyName: "Velora SRL"}
	order := invoiceTestOrder()

	html := invoiceHTML(cfg, order, "FACT-"+order.ID.Hex(), "data:image/png;base64,xxx")

	assert.Contains(t, html, "Clavier mécanique")
	assert.Contains(t, html, "Souris sans fil")
	assert.Contains(t, html, "224.80€")
	assert.Contains(t, html, "33.72€")
	assert.Contains(t, html, "258.52€")
	assert.Contains(t, html, "14/03/2026")
}

func TestOrderConfirmationHTML_ContainsItemsAndTotal(t *testing.T) {
	order := invoiceTestOrder()

	html := OrderConfirmationHTML(order)

	assert.Contains(t, html, "Clavier mécanique")
	assert.Contains(t, html, "258.52")
}
