package repository

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrOrderNotFound     = errors.New("commande introuvable")
	ErrProductNotFound   = errors.New("produit introuvable")
	ErrUserNotFound      = errors.New("utilisateur introuvable")
	ErrDuplicateReview   = errors.New("avis déjà déposé pour ce produit")
	ErrInsufficientStock = errors.New("stock insuffisant")

	// ErrStoreUnavailable enveloppe les erreurs de connectivité MongoDB.
	// Propagée telle quelle au client comme échec réessayable — jamais avalée.
	ErrStoreUnavailable = errors.New("base de données indisponible")
)

// storeErr convertit une erreur du driver : absence de document → notFound,
// tout le reste → indisponibilité du store.
func storeErr(err, notFound error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
