package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username  string               `bson:"username" json:"username"`
	Email     string               `bson:"email" json:"email"`
	Password  string               `bson:"password" json:"-"`
	IsAdmin   bool                 `bson:"is_admin" json:"isAdmin"`
	Provider  string               `bson:"provider,omitempty" json:"provider,omitempty"`
	Favorites []primitive.ObjectID `bson:"favorites,omitempty" json:"favorites,omitempty"`
	CreatedAt time.Time            `bson:"created_at" json:"createdAt"`
}
