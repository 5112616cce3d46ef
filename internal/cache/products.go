package cache

import (
	"context"
	"encoding/json"
	"time"

	"velora_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	ProductCacheTTL = 10 * time.Minute
	ListCacheTTL    = 5 * time.Minute
)

// ProductCache met les produits en cache dans Redis (cache-aside).
// Toutes les méthodes sont best-effort : une panne Redis ne fait
// jamais échouer la requête, on retombe sur Mongo.
type ProductCache struct {
	redis *redis.Client
}

func NewProductCache(rdb *redis.Client) *ProductCache {
	return &ProductCache{redis: rdb}
}

// GetProduct récupère un produit depuis Redis. Retourne nil si absent.
func (pc *ProductCache) GetProduct(ctx context.Context, productID string) *models.Product {
	data, err := pc.redis.Get(ctx, "product:"+productID).Result()
	if err != nil {
		return nil
	}
	var product models.Product
	if json.Unmarshal([]byte(data), &product) != nil {
		return nil
	}
	return &product
}

func (pc *ProductCache) SetProduct(ctx context.Context, product *models.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	pc.redis.Set(ctx, "product:"+product.ID.Hex(), data, ProductCacheTTL)
}

// GetList récupère une liste de produits en cache (top, nouveautés...)
func (pc *ProductCache) GetList(ctx context.Context, key string) []models.Product {
	data, err := pc.redis.Get(ctx, "products:"+key).Result()
	if err != nil {
		return nil
	}
	var products []models.Product
	if json.Unmarshal([]byte(data), &products) != nil {
		return nil
	}
	return products
}

func (pc *ProductCache) SetList(ctx context.Context, key string, products []models.Product) {
	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	pc.redis.Set(ctx, "products:"+key, data, ListCacheTTL)
}

// Invalidate supprime un produit du cache ainsi que les listes dérivées.
// À appeler après toute écriture catalogue (update, stock, avis).
func (pc *ProductCache) Invalidate(ctx context.Context, productID string) {
	pc.redis.Del(ctx, "product:"+productID)
	pc.InvalidateLists(ctx)
}

func (pc *ProductCache) InvalidateLists(ctx context.Context) {
	iter := pc.redis.Scan(ctx, 0, "products:*", 100).Iterator()
	for iter.Next(ctx) {
		pc.redis.Del(ctx, iter.Val())
	}
}
