package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/ludolog/ludolog/internal/middleware"
	"github.com/ludolog/ludolog/internal/models"
	"github.com/ludolog/ludolog/internal/policy"
	"github.com/ludolog/ludolog/internal/utils"
)

type PlayHandler struct {
	DB  *sqlx.DB
	Log zerolog.Logger
}

func NewPlayHandler(db *sqlx.DB, log zerolog.Logger) *PlayHandler {
	return &PlayHandler{DB: db, Log: log}
}

var playOrderColumns = map[string]bool{
	"id": true, "name": true, "game_id": true, "played_at": true,
	"created_at": true, "updated_at": true,
}

const playColumns = `id, user_id, game_id, name, played_at, json_additional_data, created_at, updated_at`

type ownerCtxKey struct{}

// ResolveOwner binds the {userId} path scope before any play handler runs.
// An unknown user id is a 404 regardless of the rest of the request.
func (h *PlayHandler) ResolveOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)

		var owner models.User
		err := h.DB.GetContext(r.Context(), &owner, `
			SELECT id, name, email, password, role, created_at, updated_at
			FROM users WHERE id=$1
		`, id)
		if errors.Is(err, sql.ErrNoRows) {
			utils.JSONMsg(w, http.StatusNotFound, "Wrong user id")
			return
		}
		if err != nil {
			h.Log.Error().Err(err).Msg("resolve play owner")
			utils.InternalError(w)
			return
		}

		ctx := context.WithValue(r.Context(), ownerCtxKey{}, &owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerFrom(ctx context.Context) *models.User {
	owner, _ := ctx.Value(ownerCtxKey{}).(*models.User)
	return owner
}

// ---------------------- LIST ----------------------

func (h *PlayHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())
	q := r.URL.Query()

	where := `user_id = $1`
	args := []any{owner.ID}
	var errs utils.FieldErrors

	if search := q.Get("search"); search != "" {
		args = append(args, search)
		n := strconv.Itoa(len(args))
		where += ` AND (name LIKE $` + n + ` OR json_additional_data LIKE $` + n + `)`
	}
	if from := q.Get("from_date"); from != "" {
		ts, err := strconv.ParseInt(from, 10, 64)
		if err != nil {
			errs.Add("from_date", "From_date must be an integer")
		} else {
			args = append(args, time.Unix(ts, 0).UTC())
			where += ` AND played_at >= $` + strconv.Itoa(len(args))
		}
	}
	if to := q.Get("to_date"); to != "" {
		ts, err := strconv.ParseInt(to, 10, 64)
		if err != nil {
			errs.Add("to_date", "To_date must be an integer")
		} else {
			args = append(args, time.Unix(ts, 0).UTC())
			where += ` AND played_at <= $` + strconv.Itoa(len(args))
		}
	}
	if game := q.Get("game"); game != "" {
		gameID, err := strconv.ParseInt(game, 10, 64)
		if err != nil {
			errs.Add("game", "Game must be an integer")
		} else {
			args = append(args, gameID)
			where += ` AND game_id = $` + strconv.Itoa(len(args))
		}
	}
	if errs.Any() {
		errs.Send(w)
		return
	}

	order := orderClause(q.Get("order"), q.Get("order_type"), playOrderColumns)

	var plays []models.Play
	err := h.DB.SelectContext(r.Context(), &plays, `
		SELECT `+playColumns+`
		FROM plays
		WHERE `+where+`
		ORDER BY `+order, args...)
	if err != nil {
		h.Log.Error().Err(err).Msg("list plays")
		utils.InternalError(w)
		return
	}

	views := make([]models.PlayView, 0, len(plays))
	for i := range plays {
		views = append(views, plays[i].Public())
	}
	utils.JSON(w, http.StatusOK, views)
}

// ---------------------- GET ONE ----------------------

func (h *PlayHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	var play models.Play
	err := h.DB.GetContext(r.Context(), &play, `SELECT `+playColumns+` FROM plays WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.JSONMsg(w, http.StatusNotFound, "Play not found")
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("get play")
		utils.InternalError(w)
		return
	}

	// Exists but belongs to a different user scope: deny, do not leak.
	if !policy.PlayVisible(&play, owner.ID) {
		utils.JSONMsg(w, http.StatusForbidden, "Play is not of this user")
		return
	}

	utils.JSON(w, http.StatusOK, play.Public())
}

// ---------------------- CREATE ----------------------

// Plays are immutable once created; they disappear only when their user or
// game is deleted.
func (h *PlayHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())

	var body struct {
		Name           string          `json:"name"`
		AdditionalData json.RawMessage `json:"additional_data"`
		PlayedAt       *int64          `json:"played_at"`
		GameID         *int64          `json:"game_id"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		return
	}

	var errs utils.FieldErrors
	if utils.Blank(body.Name) {
		errs.Add("name", "Name cannot be blank")
	}
	if len(body.AdditionalData) == 0 || string(body.AdditionalData) == "null" {
		errs.Add("additional_data", "Additional_data cannot be blank")
	}
	if body.PlayedAt == nil {
		errs.Add("played_at", "Played_at cannot be blank")
	}
	if body.GameID == nil {
		errs.Add("game_id", "Game_id must be an integer")
	}
	if errs.Any() {
		errs.Send(w)
		return
	}

	if !policy.CanCreatePlay(middleware.UserFrom(r.Context()), owner.ID) {
		utils.JSONMsg(w, http.StatusForbidden, "You are not authorized to create plays")
		return
	}

	var gameExists bool
	err := h.DB.GetContext(r.Context(), &gameExists,
		`SELECT EXISTS (SELECT 1 FROM games WHERE id=$1)`, *body.GameID)
	if err != nil {
		h.Log.Error().Err(err).Msg("check game for play")
		utils.InternalError(w)
		return
	}
	if !gameExists {
		utils.FieldErrors{{Param: "game_id", Msg: "Game_id inserted doesn't exist"}}.Send(w)
		return
	}

	play := models.Play{
		UserID:             owner.ID,
		GameID:             *body.GameID,
		Name:               body.Name,
		PlayedAt:           time.Unix(*body.PlayedAt, 0).UTC(),
		JSONAdditionalData: string(body.AdditionalData),
	}

	err = h.DB.QueryRowxContext(r.Context(), `
		INSERT INTO plays (user_id, game_id, name, played_at, json_additional_data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, play.UserID, play.GameID, play.Name, play.PlayedAt, play.JSONAdditionalData).
		Scan(&play.ID, &play.CreatedAt, &play.UpdatedAt)
	if err != nil {
		h.Log.Error().Err(err).Msg("create play")
		utils.InternalError(w)
		return
	}

	utils.JSON(w, http.StatusCreated, play.Public())
}
