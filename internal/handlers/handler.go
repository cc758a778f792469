package handlers

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/ludolog/ludolog/internal/auth"
)

type Handler struct {
	DB     *sqlx.DB
	Log    zerolog.Logger
	Tokens *auth.TokenService
	Users  *UserHandler
	Games  *GameHandler
	Plays  *PlayHandler
}

func NewHandler(db *sqlx.DB, log zerolog.Logger, tokens *auth.TokenService) *Handler {
	return &Handler{
		DB:     db,
		Log:    log,
		Tokens: tokens,
		Users:  NewUserHandler(db, log, tokens),
		Games:  NewGameHandler(db, log),
		Plays:  NewPlayHandler(db, log),
	}
}

// isUniqueViolation reports a Postgres 23505 on insert or update.
func isUniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// orderClause resolves the order/order_type query contract against a column
// whitelist. Unknown columns fall back to created_at; anything but desc is
// ascending.
func orderClause(column, direction string, allowed map[string]bool) string {
	if !allowed[column] {
		column = "created_at"
	}
	if direction != "desc" {
		direction = "asc"
	}
	return column + " " + direction
}
