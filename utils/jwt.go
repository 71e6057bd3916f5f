package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskhive/config"
	"taskhive/models"
)

// TeamRoleClaim mirrors one membership row inside the token. The
// snapshot is for client display only; authorization always re-reads
// the current rows from the store.
type TeamRoleClaim struct {
	TeamID uint   `json:"team_id"`
	Role   string `json:"role"`
}

type Claims struct {
	UserID    uint            `json:"user_id"`
	Role      string          `json:"role"`
	TeamRoles []TeamRoleClaim `json:"team_roles,omitempty"`
	jwt.RegisteredClaims
}

// GenerateJWTToken issues a signed token for the user, valid for 24
// hours.
func GenerateJWTToken(user *models.User) (string, error) {
	teamRoles := make([]TeamRoleClaim, 0, len(user.Memberships))
	for _, m := range user.Memberships {
		teamRoles = append(teamRoles, TeamRoleClaim{TeamID: m.TeamID, Role: m.Role})
	}

	claims := &Claims{
		UserID:    user.ID,
		Role:      user.Role,
		TeamRoles: teamRoles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func ParseJWTToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
