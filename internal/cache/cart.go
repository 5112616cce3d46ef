package cache

import (
	"context"
	"encoding/json"
	"time"

	"velora_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

const CartTTL = 7 * 24 * time.Hour

// CartStore garde le panier des utilisateurs connectés dans Redis,
// une clé par utilisateur, expirée après une semaine d'inactivité.
type CartStore struct {
	redis *redis.Client
}

func NewCartStore(rdb *redis.Client) *CartStore {
	return &CartStore{redis: rdb}
}

func (cs *CartStore) Get(ctx context.Context, userID string) ([]models.CartItem, error) {
	data, err := cs.redis.Get(ctx, "cart:"+userID).Result()
	if err == redis.Nil {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (cs *CartStore) Save(ctx context.Context, userID string, items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return cs.redis.Set(ctx, "cart:"+userID, data, CartTTL).Err()
}

// Clear vide le panier, typiquement après la création d'une commande
func (cs *CartStore) Clear(ctx context.Context, userID string) error {
	return cs.redis.Del(ctx, "cart:"+userID).Err()
}
