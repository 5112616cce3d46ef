// Package catalog porte les opérations métier du catalogue qui dépassent le
// simple CRUD — aujourd'hui la soumission d'avis.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"velora_back_end/internal/models"
	"velora_back_end/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidRating = errors.New("la note doit être comprise entre 1 et 5")

// ReviewStore est la surface produit nécessaire aux avis. AppendReview doit
// rejeter atomiquement un second avis du même utilisateur.
type ReviewStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	AppendReview(ctx context.Context, id primitive.ObjectID, review models.Review) error
}

type ReviewService struct {
	products ReviewStore
	now      func() time.Time
}

func NewReviewService(products ReviewStore) *ReviewService {
	return &ReviewService{products: products, now: time.Now}
}

// AddReview ajoute un avis : un seul par utilisateur et par produit. Les
// champs dérivés (note moyenne arithmétique, nombre d'avis) sont recalculés
// par le store au moment de l'ajout.
func (s *ReviewService) AddReview(ctx context.Context, productID, userID primitive.ObjectID, userName string, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: %d", ErrInvalidRating, rating)
	}

	// Le store revérifie le doublon dans son filtre de mise à jour — ce
	// premier contrôle sert surtout à échouer avant toute écriture.
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	for _, review := range product.Reviews {
		if review.User == userID {
			return repository.ErrDuplicateReview
		}
	}

	return s.products.AppendReview(ctx, productID, models.Review{
		User:      userID,
		Name:      userName,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: s.now(),
	})
}
