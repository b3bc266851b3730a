package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/offsideleague/league-engine/models"
)

type contextKey string

const actorContextKey contextKey = "actor"

// Claim names issued by the identity provider.
const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"

	roleStaff = "staff"
)

// Authenticate verifies the Bearer token and stores the resulting
// actor in the request context. Identity is owned by an external
// service; the engine only trusts the shared-secret signature.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			actor, err := parseActor(tokenString, secret)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), actorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseActor(tokenString, secret string) (models.Actor, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return models.Actor{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Actor{}, errors.New("invalid token claims")
	}

	idClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return models.Actor{}, fmt.Errorf("missing %q claim", jwtClaimUserID)
	}
	idFloat, ok := idClaim.(float64)
	if !ok || idFloat != float64(int64(idFloat)) || int64(idFloat) <= 0 {
		return models.Actor{}, fmt.Errorf("invalid %q claim: %v", jwtClaimUserID, idClaim)
	}

	role, _ := claims[jwtClaimRole].(string)

	return models.Actor{
		ID:      int64(idFloat),
		IsStaff: role == roleStaff,
	}, nil
}

// ActorFromContext returns the authenticated actor placed by
// Authenticate.
func ActorFromContext(ctx context.Context) (models.Actor, error) {
	actor, ok := ctx.Value(actorContextKey).(models.Actor)
	if !ok {
		return models.Actor{}, errors.New("actor not found in context")
	}
	return actor, nil
}
