package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Role   models.Role
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Auth resolves the principal from a bearer token signed with Secret.
// With Enabled false the X-User-ID and X-User-Role headers are trusted
// instead, which is only meant for local development.
type Auth struct {
	Enabled bool
	Secret  []byte
}

func (a Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			p   Principal
			err error
		)
		if a.Enabled {
			p, err = a.fromToken(r.Header.Get("Authorization"))
		} else {
			p, err = fromHeaders(r)
		}
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

func (a Auth) fromToken(header string) (Principal, error) {
	if header == "" {
		return Principal{}, errors.New("authorization header required")
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return Principal{}, errors.New("invalid authorization format")
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (any, error) {
		return a.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Principal{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errors.New("invalid token claims")
	}
	sub, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	return parsePrincipal(sub, role)
}

func fromHeaders(r *http.Request) (Principal, error) {
	return parsePrincipal(r.Header.Get("X-User-ID"), r.Header.Get("X-User-Role"))
}

func parsePrincipal(id, role string) (Principal, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid user id %q", id)
	}
	if role == "" {
		return Principal{}, errors.New("role missing")
	}
	return Principal{UserID: uid, Role: models.Role(role)}, nil
}

// RequireRole rejects principals whose role is not listed.
func RequireRole(h http.HandlerFunc, roles ...models.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthenticated"})
			return
		}
		if !slices.Contains(roles, p.Role) {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "access denied"})
			return
		}
		h(w, r)
	})
}

// IssueToken signs a token for the given principal.
func IssueToken(secret []byte, p Principal) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": p.UserID.String(),
		"role":    string(p.Role),
	}).SignedString(secret)
}
