package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

func SignToken(secret string, actor Actor, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":       actor.AccountID,
		"companyId": actor.CompanyID,
		"role":      actor.Role,
		"exp":       now.Add(tokenTTL).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Actor{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Actor{}, ErrInvalidToken
	}

	accountID, ok1 := claims["sub"].(float64)
	companyID, ok2 := claims["companyId"].(float64)
	role, _ := claims["role"].(string)
	if !ok1 || !ok2 || role == "" {
		return Actor{}, ErrInvalidToken
	}

	return Actor{
		AccountID: uint(accountID),
		CompanyID: uint(companyID),
		Role:      role,
	}, nil
}
