package utils

import (
	"time"

	"velora_back_end/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWT émet le token de session d'un utilisateur. Le secret vient de
// la configuration injectée, pas de l'environnement.
func GenerateJWT(secret string, user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID.Hex(),
		"email":    user.Email,
		"username": user.Username,
		"is_admin": user.IsAdmin,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
