package services

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService verifies access tokens minted by the admin console.
type TokenService struct {
	Secret []byte
	Issuer string
}

func (t TokenService) ParseToken(tokenStr string) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.Secret, nil
	}, jwt.WithIssuer(t.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return token, claims, err
}

// Roles extracts the upper-cased role list from access-token claims.
func Roles(claims jwt.MapClaims) []string {
	roles := []string{}
	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range rawRoles {
			if role, ok := r.(string); ok {
				roles = append(roles, strings.ToUpper(role))
			}
		}
	}
	return roles
}
