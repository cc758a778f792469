package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/ludolog/ludolog/internal/auth"
	"github.com/ludolog/ludolog/internal/models"
	"github.com/ludolog/ludolog/internal/utils"
)

// context key
type ctxKey int

const userKey ctxKey = 0

// WithUser attaches the resolved user to the context.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the resolved user, or nil for an anonymous request.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// Identify runs on every request before routing. It extracts a bearer token,
// verifies it, and re-fetches the subject's user row. Any failure along the
// way (no header, bad token, user deleted since issuance) leaves the request
// anonymous; rejection happens downstream, per route.
func Identify(tokens *auth.TokenService, db *sqlx.DB, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Verify(tok)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			var u models.User
			err = db.GetContext(r.Context(), &u, `
				SELECT id, name, email, password, role, created_at, updated_at
				FROM users
				WHERE id=$1
			`, claims.UserID())
			if err != nil {
				// Subject no longer resolves; proceed unauthenticated.
				log.Debug().Int64("sub", claims.UserID()).Msg("token subject did not resolve")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), &u)))
		})
	}
}

// RequireAuth gates a route on a resolved identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFrom(r.Context()) == nil {
			utils.JSONMsg(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
