package repository

import (
	"context"
	"fmt"
	"time"

	"velora_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductRepository persiste le catalogue dans MongoDB. Les avis sont
// embarqués dans le document produit.
type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection("products")}
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Reviews == nil {
		p.Reviews = []models.Review{}
	}
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return p, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) (*models.Product, error) {
	p.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":           p.Name,
		"description":    p.Description,
		"brand":          p.Brand,
		"category":       p.Category,
		"price":          p.Price,
		"quantity":       p.Quantity,
		"count_in_stock": p.CountInStock,
		"image":          p.Image,
		"updated_at":     p.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Product
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": p.ID}, update, opts).Decode(&updated); err != nil {
		return nil, storeErr(err, ErrProductNotFound)
	}
	return &updated, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, storeErr(err, ErrProductNotFound)
	}
	return &p, nil
}

// FindByIDs récupère en une requête tous les produits référencés par un
// checkout. L'appelant vérifie que chaque id demandé est bien présent.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	found := make(map[primitive.ObjectID]models.Product, len(ids))
	for cursor.Next(ctx) {
		var p models.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		found[p.ID] = p
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return found, nil
}

// Find liste le catalogue avec recherche par mot-clé (regex insensible à la
// casse sur le nom) et pagination.
func (r *ProductRepository) Find(ctx context.Context, keyword string, page, pageSize int64) ([]models.Product, int64, error) {
	filter := bson.M{}
	if keyword != "" {
		filter["name"] = bson.M{"$regex": keyword, "$options": "i"}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * pageSize).
		SetLimit(pageSize)

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return products, total, nil
}

// Top retourne les produits les mieux notés.
func (r *ProductRepository) Top(ctx context.Context, limit int64) ([]models.Product, error) {
	return r.findSorted(ctx, bson.D{{Key: "rating", Value: -1}}, limit)
}

// Newest retourne les derniers produits ajoutés.
func (r *ProductRepository) Newest(ctx context.Context, limit int64) ([]models.Product, error) {
	return r.findSorted(ctx, bson.D{{Key: "_id", Value: -1}}, limit)
}

func (r *ProductRepository) findSorted(ctx context.Context, sort bson.D, limit int64) ([]models.Product, error) {
	opts := options.Find().SetSort(sort).SetLimit(limit)
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return products, nil
}

// Random tire des produits au hasard via $sample.
func (r *ProductRepository) Random(ctx context.Context, count int64) ([]models.Product, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: count}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return products, nil
}

// Filter filtre par catégories et fourchette de prix.
func (r *ProductRepository) Filter(ctx context.Context, categories []string, priceMin, priceMax float64) ([]models.Product, error) {
	filter := bson.M{}
	if len(categories) > 0 {
		filter["category"] = bson.M{"$in": categories}
	}
	if priceMax > 0 {
		filter["price"] = bson.M{"$gte": priceMin, "$lte": priceMax}
	}

	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return products, nil
}

// DecrementStock décrémente le stock en une mise à jour conditionnelle :
// elle n'aboutit que si count_in_stock >= qty, pour empêcher la survente.
func (r *ProductRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	filter := bson.M{"_id": id, "count_in_stock": bson.M{"$gte": qty}}
	update := bson.M{"$inc": bson.M{"count_in_stock": -qty}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

// IncrementStock rend du stock (compensation d'un checkout avorté).
func (r *ProductRepository) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"count_in_stock": qty}})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// AppendReview ajoute un avis. Le filtre reviews.user $ne rejette
// atomiquement un second avis du même utilisateur, puis les champs dérivés
// (note moyenne, nombre d'avis) sont recalculés.
func (r *ProductRepository) AppendReview(ctx context.Context, id primitive.ObjectID, review models.Review) error {
	filter := bson.M{"_id": id, "reviews.user": bson.M{"$ne": review.User}}
	update := bson.M{"$push": bson.M{"reviews": review}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrDuplicateReview
	}
	return r.recomputeRating(ctx, id)
}

func (r *ProductRepository) recomputeRating(ctx context.Context, id primitive.ObjectID) error {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}

	var sum int
	for _, rev := range p.Reviews {
		sum += rev.Rating
	}
	rating := 0.0
	if len(p.Reviews) > 0 {
		rating = float64(sum) / float64(len(p.Reviews))
	}

	_, err = r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"rating":      rating,
		"num_reviews": len(p.Reviews),
	}})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
