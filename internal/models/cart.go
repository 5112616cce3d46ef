package models

// CartItem est une entrée du panier Redis. La quantité est la seule donnée
// client qui fait foi — le prix sera relu du catalogue au checkout.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
