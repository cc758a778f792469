package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/ludolog/ludolog/internal/auth"
	"github.com/ludolog/ludolog/internal/middleware"
	"github.com/ludolog/ludolog/internal/models"
	"github.com/ludolog/ludolog/internal/policy"
	"github.com/ludolog/ludolog/internal/utils"
)

type UserHandler struct {
	DB     *sqlx.DB
	Log    zerolog.Logger
	Tokens *auth.TokenService
}

func NewUserHandler(db *sqlx.DB, log zerolog.Logger, tokens *auth.TokenService) *UserHandler {
	return &UserHandler{DB: db, Log: log, Tokens: tokens}
}

var userOrderColumns = map[string]bool{
	"id": true, "name": true, "email": true, "role": true,
	"created_at": true, "updated_at": true,
}

const userColumns = `id, name, email, password, role, created_at, updated_at`

// ---------------------- LIST ----------------------

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	if search == "" {
		search = "%"
	}
	order := orderClause(r.URL.Query().Get("order"), r.URL.Query().Get("order_type"), userOrderColumns)

	var users []models.User
	err := h.DB.SelectContext(r.Context(), &users, `
		SELECT `+userColumns+`
		FROM users
		WHERE name LIKE $1 OR email LIKE $1
		ORDER BY `+order, search)
	if err != nil {
		h.Log.Error().Err(err).Msg("list users")
		utils.InternalError(w)
		return
	}

	if users == nil {
		users = []models.User{}
	}
	utils.JSON(w, http.StatusOK, users)
}

// ---------------------- GET ONE ----------------------

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)

	var user models.User
	err := h.DB.GetContext(r.Context(), &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.JSONMsg(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("get user")
		utils.InternalError(w)
		return
	}

	utils.JSON(w, http.StatusOK, user)
}

// ---------------------- CREATE ----------------------

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		return
	}

	body.Email = utils.NormalizeEmail(body.Email)

	var errs utils.FieldErrors
	if utils.Blank(body.Name) {
		errs.Add("name", "Name cannot be blank")
	}
	if utils.Blank(body.Email) {
		errs.Add("email", "Email cannot be blank")
	} else if !utils.ValidEmail(body.Email) {
		errs.Add("email", "Email is not valid")
	}
	if len(body.Password) < 4 {
		errs.Add("password", "Password must be at least 4 characters long")
	}
	if errs.Any() {
		errs.Send(w)
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		h.Log.Error().Err(err).Msg("hash password")
		utils.InternalError(w)
		return
	}

	user := models.User{
		Name:     body.Name,
		Email:    body.Email,
		Password: hash,
		Role:     models.RoleNormal,
	}
	err = h.DB.QueryRowxContext(r.Context(), `
		INSERT INTO users (name, email, password)
		VALUES ($1, $2, $3)
		RETURNING id, role, created_at, updated_at
	`, user.Name, user.Email, hash).
		Scan(&user.ID, &user.Role, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if sendUniqueViolation(w, err) {
			return
		}
		h.Log.Error().Err(err).Msg("create user")
		utils.InternalError(w)
		return
	}

	utils.JSON(w, http.StatusCreated, user)
}

// ---------------------- UPDATE ----------------------

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	actor := middleware.UserFrom(r.Context())

	var body struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		return
	}

	var errs utils.FieldErrors
	if body.Name != nil && utils.Blank(*body.Name) {
		errs.Add("name", "Name cannot be blank")
	}
	if body.Email != nil {
		*body.Email = utils.NormalizeEmail(*body.Email)
		if !utils.ValidEmail(*body.Email) {
			errs.Add("email", "Email is not valid")
		}
	}
	if body.Password != nil && len(*body.Password) < 4 {
		errs.Add("password", "Password must be at least 4 characters long")
	}
	if body.Role != nil {
		if !models.Role(*body.Role).Valid() {
			errs.Add("role", "Role must be normal or power")
		} else if !policy.CanSetRole(actor) {
			errs.Add("role", "Only power users can change roles")
		}
	}
	if errs.Any() {
		errs.Send(w)
		return
	}

	if !policy.CanModifyUser(actor, id) {
		utils.JSONMsg(w, http.StatusForbidden, "You are not authorized to modify this user")
		return
	}

	var user models.User
	err := h.DB.GetContext(r.Context(), &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.JSONMsg(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("fetch user for update")
		utils.InternalError(w)
		return
	}

	if body.Name != nil {
		user.Name = *body.Name
	}
	if body.Email != nil {
		user.Email = *body.Email
	}
	if body.Role != nil {
		user.Role = models.Role(*body.Role)
	}
	if body.Password != nil {
		hash, err := auth.HashPassword(*body.Password)
		if err != nil {
			h.Log.Error().Err(err).Msg("hash password")
			utils.InternalError(w)
			return
		}
		user.Password = hash
	}

	err = h.DB.QueryRowxContext(r.Context(), `
		UPDATE users
		SET name=$1, email=$2, password=$3, role=$4, updated_at=now()
		WHERE id=$5
		RETURNING updated_at
	`, user.Name, user.Email, user.Password, user.Role, id).
		Scan(&user.UpdatedAt)

	if err != nil {
		if sendUniqueViolation(w, err) {
			return
		}
		h.Log.Error().Err(err).Msg("update user")
		utils.InternalError(w)
		return
	}

	utils.JSON(w, http.StatusOK, user)
}

// ---------------------- DELETE ----------------------

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	actor := middleware.UserFrom(r.Context())

	if !policy.CanModifyUser(actor, id) {
		utils.JSONMsg(w, http.StatusForbidden, "You are not authorized to delete this user")
		return
	}

	// Plays go with the user via FK cascade.
	var deleted int64
	err := h.DB.QueryRowxContext(r.Context(), `DELETE FROM users WHERE id=$1 RETURNING id`, id).
		Scan(&deleted)
	if errors.Is(err, sql.ErrNoRows) {
		utils.JSONMsg(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("delete user")
		utils.InternalError(w)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]int64{"id": deleted})
}

// ---------------------- LOGIN ----------------------

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		return
	}

	body.Email = utils.NormalizeEmail(body.Email)

	var errs utils.FieldErrors
	if utils.Blank(body.Email) {
		errs.Add("email", "Email cannot be blank")
	} else if !utils.ValidEmail(body.Email) {
		errs.Add("email", "Email is not valid")
	}
	if body.Password == "" {
		errs.Add("password", "Password cannot be blank")
	}
	if errs.Any() {
		errs.Send(w)
		return
	}

	var user models.User
	err := h.DB.GetContext(r.Context(), &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, body.Email)
	if errors.Is(err, sql.ErrNoRows) {
		utils.JSONMsg(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("login lookup")
		utils.InternalError(w)
		return
	}

	if !auth.CheckPassword(body.Password, user.Password) {
		utils.JSONMsg(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.Log.Error().Err(err).Msg("issue token")
		utils.InternalError(w)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// sendUniqueViolation maps a 23505 to the duplicate-account validation error.
func sendUniqueViolation(w http.ResponseWriter, err error) bool {
	constraint, ok := isUniqueViolation(err)
	if !ok {
		return false
	}
	param := "name"
	if constraint == "users_email_key" {
		param = "email"
	}
	utils.FieldErrors{{
		Param: param,
		Msg:   "The " + param + " you have entered is already associated with another account.",
	}}.Send(w)
	return true
}
