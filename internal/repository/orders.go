package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"velora_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrOrderAlreadyPaid      = errors.New("commande déjà payée")
	ErrOrderAlreadyDelivered = errors.New("commande déjà livrée")
	ErrOrderNotEligible      = errors.New("commande non éligible à la livraison (non payée)")
)

// OrderRepository persiste les commandes dans MongoDB. Les transitions
// payé/livré sont des mises à jour conditionnelles atomiques : jamais de
// lecture-puis-sauvegarde sur le même document.
type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection("orders")}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return order, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, storeErr(err, ErrOrderNotFound)
	}
	return &order, nil
}

func (r *OrderRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return orders, nil
}

func (r *OrderRepository) FindAll(ctx context.Context) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return orders, nil
}

func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}

// SumTotalPrice additionne total_price sur toutes les commandes.
func (r *OrderRepository) SumTotalPrice(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_sales", Value: bson.D{{Key: "$sum", Value: "$total_price"}}},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		TotalSales float64 `bson:"total_sales"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].TotalSales, nil
}

// dailySalesPipeline : commandes payées uniquement, regroupées par date
// calendaire (YYYY-MM-DD) de paid_at, triées par date croissante.
func dailySalesPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "is_paid", Value: true}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$paid_at"},
			}}}},
			{Key: "total_sales", Value: bson.D{{Key: "$sum", Value: "$total_price"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

// SalesByDate retourne le chiffre d'affaires par jour. Lecture instantanée
// non transactionnelle — un léger décalage est acceptable pour du reporting.
func (r *OrderRepository) SalesByDate(ctx context.Context) ([]models.DailySales, error) {
	cursor, err := r.col.Aggregate(ctx, dailySalesPipeline())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	sales := []models.DailySales{}
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return sales, nil
}

// MarkPaid passe la commande à l'état payé en une seule mise à jour
// conditionnelle (is_paid: false → true). Un second appel échoue avec
// ErrOrderAlreadyPaid au lieu d'écraser silencieusement paid_at.
func (r *OrderRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, result models.PaymentResult, at time.Time) (*models.Order, error) {
	filter := bson.M{"_id": id, "is_paid": false}
	update := bson.M{"$set": bson.M{
		"is_paid":        true,
		"paid_at":        at,
		"payment_result": result,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Pas de correspondance : soit la commande n'existe pas, soit elle est déjà payée
	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrOrderAlreadyPaid
}

// SetCashOnDelivery bascule une commande impayée en paiement à la livraison
// et enregistre la référence interne. La commande reste impayée : le
// règlement est acté au moment de la remise (MarkDelivered).
func (r *OrderRepository) SetCashOnDelivery(ctx context.Context, id primitive.ObjectID, ref string) (*models.Order, error) {
	filter := bson.M{"_id": id, "is_paid": false}
	update := bson.M{"$set": bson.M{
		"payment_method": models.PaymentMethodCashOnDelivery,
		"payment_result": models.PaymentResult{ID: ref, Status: "pending_delivery"},
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrOrderAlreadyPaid
}

// MarkDelivered passe la commande à l'état livré. L'éligibilité (payée ou
// paiement à la livraison) est revérifiée dans le filtre de la mise à jour
// pour rester atomique. settleCOD règle en même temps le paiement d'une
// commande contre-remboursement non encore payée.
func (r *OrderRepository) MarkDelivered(ctx context.Context, id primitive.ObjectID, at time.Time, settleCOD bool) (*models.Order, error) {
	filter := bson.M{
		"_id":          id,
		"is_delivered": false,
		"$or": []bson.M{
			{"is_paid": true},
			{"payment_method": models.PaymentMethodCashOnDelivery},
		},
	}
	set := bson.M{
		"is_delivered": true,
		"delivered_at": at,
	}
	if settleCOD {
		filter["is_paid"] = false
		set["is_paid"] = true
		set["paid_at"] = at
		set["payment_result"] = models.PaymentResult{
			ID:     "COD-" + id.Hex(),
			Status: "settled_on_delivery",
		}
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&order)
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case current.IsDelivered:
		return nil, ErrOrderAlreadyDelivered
	case !current.DeliveryEligible():
		return nil, ErrOrderNotEligible
	default:
		// La commande a été payée entre-temps : relivrer sans règlement COD
		return r.MarkDelivered(ctx, id, at, false)
	}
}

// Delete supprime une commande. Opération d'administration uniquement —
// jamais exposée aux utilisateurs normaux.
func (r *OrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if res.DeletedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}
