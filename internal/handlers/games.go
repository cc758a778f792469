package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/ludolog/ludolog/internal/middleware"
	"github.com/ludolog/ludolog/internal/models"
	"github.com/ludolog/ludolog/internal/policy"
	"github.com/ludolog/ludolog/internal/utils"
)

type GameHandler struct {
	DB  *sqlx.DB
	Log zerolog.Logger
}

func NewGameHandler(db *sqlx.DB, log zerolog.Logger) *GameHandler {
	return &GameHandler{DB: db, Log: log}
}

var gameOrderColumns = map[string]bool{
	"id": true, "name": true, "created_at": true, "updated_at": true,
}

const gameColumns = `id, name, json_designers, cover, created_at, updated_at`

// ---------------------- LIST ----------------------

func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	if search == "" {
		search = "%"
	}
	order := orderClause(r.URL.Query().Get("order"), r.URL.Query().Get("order_type"), gameOrderColumns)

	var games []models.Game
	err := h.DB.SelectContext(r.Context(), &games, `
		SELECT `+gameColumns+`
		FROM games
		WHERE name LIKE $1 OR json_designers LIKE $1
		ORDER BY `+order, search)
	if err != nil {
		h.Log.Error().Err(err).Msg("list games")
		utils.InternalError(w)
		return
	}

	views := make([]models.GameView, 0, len(games))
	for i := range games {
		views = append(views, games[i].Public())
	}
	utils.JSON(w, http.StatusOK, views)
}

// ---------------------- GET ONE ----------------------

func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	var game models.Game
	err := h.DB.GetContext(r.Context(), &game, `SELECT `+gameColumns+` FROM games WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.JSONMsg(w, http.StatusNotFound, "Game not found")
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("get game")
		utils.InternalError(w)
		return
	}

	utils.JSON(w, http.StatusOK, game.Public())
}

// ---------------------- CREATE ----------------------

// Games are immutable once created; only power users may add them.
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string   `json:"name"`
		Designers []string `json:"designers"`
		Cover     string   `json:"cover"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		return
	}

	var errs utils.FieldErrors
	if utils.Blank(body.Name) {
		errs.Add("name", "Name cannot be blank")
	}
	if len(body.Designers) == 0 {
		errs.Add("designers", "Designers cannot be blank")
	}
	if utils.Blank(body.Cover) {
		errs.Add("cover", "Cover cannot be blank")
	}
	if errs.Any() {
		errs.Send(w)
		return
	}

	if !policy.CanCreateGame(middleware.UserFrom(r.Context())) {
		utils.JSONMsg(w, http.StatusForbidden, "You are not a power user")
		return
	}

	game := models.Game{Name: body.Name, Cover: body.Cover}
	if err := game.SetDesigners(body.Designers); err != nil {
		h.Log.Error().Err(err).Msg("encode designers")
		utils.InternalError(w)
		return
	}

	err := h.DB.QueryRowxContext(r.Context(), `
		INSERT INTO games (name, json_designers, cover)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, game.Name, game.JSONDesigners, game.Cover).
		Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		h.Log.Error().Err(err).Msg("create game")
		utils.InternalError(w)
		return
	}

	utils.JSON(w, http.StatusCreated, game.Public())
}
