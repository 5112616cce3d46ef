package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	User      primitive.ObjectID `bson:"user" json:"user"`
	Name      string             `bson:"name" json:"name"`
	Rating    int                `bson:"rating" json:"rating"` // 1-5
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description" json:"description"`
	Brand        string             `bson:"brand" json:"brand"`
	Category     string             `bson:"category" json:"category"`
	Price        float64            `bson:"price" json:"price"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	CountInStock int                `bson:"count_in_stock" json:"countInStock"`
	Image        string             `bson:"image" json:"image"`

	// Champs dérivés des avis — recalculés à chaque ajout d'avis
	Reviews    []Review `bson:"reviews" json:"reviews"`
	Rating     float64  `bson:"rating" json:"rating"`
	NumReviews int      `bson:"num_reviews" json:"numReviews"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
