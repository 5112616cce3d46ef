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
	ErrEmailTaken        = errors.New("adresse e-mail déjà utilisée")
	ErrCannotDeleteAdmin = errors.New("impossible de supprimer un administrateur")
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection("users")}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if _, err := r.FindByEmail(ctx, user.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	if _, err := r.col.InsertOne(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, storeErr(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, storeErr(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return users, nil
}

// Update met à jour les champs de profil fournis (non vides).
func (r *UserRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user); err != nil {
		return nil, storeErr(err, ErrUserNotFound)
	}
	return &user, nil
}

// Delete refuse de supprimer un administrateur, comme l'opération d'origine.
func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin {
		return ErrCannotDeleteAdmin
	}
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *UserRepository) SetFavorites(ctx context.Context, id primitive.ObjectID, favorites []primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"favorites": favorites}})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpsertOAuth retrouve ou crée le compte associé à un login social.
func (r *UserRepository) UpsertOAuth(ctx context.Context, provider, email, name string) (*models.User, error) {
	user, err := r.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	return r.Create(ctx, &models.User{
		Username: name,
		Email:    email,
		Provider: provider,
	})
}
