package catalog

import (
	"context"
	"testing"

	"velora_back_end/internal/models"
	"velora_back_end/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeReviewStore applique les mêmes règles que ProductRepository : ajout
// refusé si l'utilisateur a déjà un avis, champs dérivés recalculés.
type fakeReviewStore struct {
	products map[primitive.ObjectID]*models.Product
}

func newFakeReviewStore(products ...*models.Product) *fakeReviewStore {
	f := &fakeReviewStore{products: map[primitive.ObjectID]*models.Product{}}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeReviewStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakeReviewStore) AppendReview(_ context.Context, id primitive.ObjectID, review models.Review) error {
	p, ok := f.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	for _, existing := range p.Reviews {
		if existing.User == review.User {
			return repository.ErrDuplicateReview
		}
	}
	p.Reviews = append(p.Reviews, review)
	p.NumReviews = len(p.Reviews)

	var sum int
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Rating = float64(sum) / float64(len(p.Reviews))
	return nil
}

func TestAddReview_Success(t *testing.T) {
	product := &models.Product{ID: primitive.NewObjectID(), Name: "Casque audio"}
	store := newFakeReviewStore(product)
	svc := NewReviewService(store)

	err := svc.AddReview(context.Background(), product.ID, primitive.NewObjectID(), "Léa", 4, "Très bon produit")

	require.NoError(t, err)
	assert.Equal(t, 1, product.NumReviews)
	assert.Equal(t, 4.0, product.Rating)
}

func TestAddReview_DuplicateRejected(t *testing.T) {
	product := &models.Product{ID: primitive.NewObjectID(), Name: "Casque audio"}
	store := newFakeReviewStore(product)
	svc := NewReviewService(store)
	userID := primitive.NewObjectID()

	err := svc.AddReview(context.Background(), product.ID, userID, "Léa", 5, "Parfait")
	require.NoError(t, err)

	err = svc.AddReview(context.Background(), product.ID, userID, "Léa", 1, "Finalement non")
	assert.ErrorIs(t, err, repository.ErrDuplicateReview)

	// Le premier avis reste seul, la note n'a pas bougé
	assert.Equal(t, 1, product.NumReviews)
	assert.Equal(t, 5.0, product.Rating)
}

func TestAddReview_MeanRating(t *testing.T) {
	product := &models.Product{ID: primitive.NewObjectID(), Name: "Casque audio"}
	store := newFakeReviewStore(product)
	svc := NewReviewService(store)

	require.NoError(t, svc.AddReview(context.Background(), product.ID, primitive.NewObjectID(), "A", 5, "ok"))
	require.NoError(t, svc.AddReview(context.Background(), product.ID, primitive.NewObjectID(), "B", 2, "bof"))

	assert.Equal(t, 2, product.NumReviews)
	assert.Equal(t, 3.5, product.Rating)
}

func TestAddReview_InvalidRating(t *testing.T) {
	product := &models.Product{ID: primitive.NewObjectID()}
	svc := NewReviewService(newFakeReviewStore(product))

	assert.ErrorIs(t, svc.AddReview(context.Background(), product.ID, primitive.NewObjectID(), "A", 0, "x"), ErrInvalidRating)
	assert.ErrorIs(t, svc.AddReview(context.Background(), product.ID, primitive.NewObjectID(), "A", 6, "x"), ErrInvalidRating)
}

func TestAddReview_UnknownProduct(t *testing.T) {
	svc := NewReviewService(newFakeReviewStore())

	err := svc.AddReview(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "A", 3, "x")

	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}
