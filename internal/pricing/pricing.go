// Package pricing calcule les montants d'une commande (articles, livraison,
// taxe, total) à partir de lignes déjà tarifées. Aucun effet de bord : le
// checkout l'appelle avec les prix relus du catalogue, jamais ceux du client.
package pricing

import (
	"errors"
	"math"
)

const (
	// Livraison offerte au-delà de ce montant d'articles, sinon tarif plat
	FreeShippingThreshold = 100.0
	FlatShippingPrice     = 10.0

	// TVA forfaitaire de 15%
	TaxRate = 0.15
)

var (
	ErrNoItems     = errors.New("aucune ligne de commande fournie")
	ErrInvalidLine = errors.New("prix ou quantité négatif")
)

// Line est une ligne tarifée : prix unitaire serveur × quantité.
type Line struct {
	Price float64
	Qty   int
}

// Totals regroupe les quatre montants dérivés d'une commande. Immuable une
// fois calculé : total_price == items + shipping + tax, au centime près.
type Totals struct {
	ItemsPrice    float64
	ShippingPrice float64
	TaxPrice      float64
	TotalPrice    float64
}

// Compute calcule les montants d'une commande.
// Arrondi : demi-vers-l'extérieur (math.Round sur les centimes), appliqué
// partout de la même façon.
func Compute(lines []Line) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, ErrNoItems
	}

	var items float64
	for _, l := range lines {
		if l.Price < 0 || l.Qty < 0 {
			return Totals{}, ErrInvalidLine
		}
		items += l.Price * float64(l.Qty)
	}
	items = round2(items)

	shipping := FlatShippingPrice
	if items > FreeShippingThreshold {
		shipping = 0
	}

	tax := round2(items * TaxRate)

	return Totals{
		ItemsPrice:    items,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		TotalPrice:    round2(items + shipping + tax),
	}, nil
}

// round2 arrondit au centime (demi-vers-l'extérieur).
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
