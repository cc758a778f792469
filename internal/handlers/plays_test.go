package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludolog/ludolog/internal/models"
	"github.com/ludolog/ludolog/internal/utils"
)

// expectOwner queues the {userId} scope resolution every play route performs.
func (e *testEnv) expectOwner(u models.User) {
	e.mock.ExpectQuery("FROM users").WithArgs(u.ID).WillReturnRows(userRows(u))
}

func TestListPlays(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwner(testNormal)

	env.mock.ExpectQuery("FROM plays").WithArgs(int64(1)).
		WillReturnRows(playRows(models.Play{
			ID: 9, UserID: 1, GameID: 3, Name: "evening round",
			PlayedAt:           time.Unix(1487000000, 0),
			JSONAdditionalData: `{"a":"b"}`,
		}))

	rec := env.do(t, "GET", "/users/1/plays/", "", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[[]map[string]any](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, float64(1487000000), got[0]["played_at"])
	assert.Equal(t, map[string]any{"a": "b"}, got[0]["additional_data"])
	assert.NotContains(t, got[0], "json_additional_data")
}

func TestListPlays_WrongUserID(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery("FROM users").WithArgs(int64(999)).
		WillReturnRows(userRows())

	rec := env.do(t, "GET", "/users/999/plays/", "", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"msg":"Wrong user id"}`, rec.Body.String())
}

func TestListPlays_Filters(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwner(testNormal)

	env.mock.ExpectQuery(`FROM plays\s+WHERE user_id = \$1 AND game_id = \$2\s+ORDER BY game_id desc`).
		WithArgs(int64(1), int64(3)).
		WillReturnRows(playRows())

	rec := env.do(t, "GET", "/users/1/plays/?game=3&order=game_id&order_type=desc", "", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestListPlays_DateRange(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwner(testNormal)

	env.mock.ExpectQuery(`played_at >= \$2 AND played_at <= \$3`).
		WithArgs(int64(1), time.Unix(1487000000, 0).UTC(), time.Unix(1488000000, 0).UTC()).
		WillReturnRows(playRows())

	rec := env.do(t, "GET", "/users/1/plays/?from_date=1487000000&to_date=1488000000", "", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestListPlays_BadDateFilter(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwner(testNormal)

	rec := env.do(t, "GET", "/users/1/plays/?from_date=yesterday", "", nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetPlay(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwner(testNormal)

	env.mock.ExpectQuery("FROM plays").WithArgs(int64(9)).
		WillReturnRows(playRows(models.Play{
			ID: 9, UserID: 1, GameID: 3, Name: "evening round",
			PlayedAt:           time.Unix(1487000000, 0),
			JSONAdditionalData: `{"a":"b"}`,
		}))

	rec := env.do(t, "GET", "/users/1/plays/9", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[map[string]any](t, rec)
	assert.Equal(t, float64(9), got["id"])
}

func TestGetPlay_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwner(testNormal)

	env.mock.ExpectQuery("FROM plays").WithArgs(int64(999)).
		WillReturnRows(playRows())

	rec := env.do(t, "GET", "/users/1/plays/999", "", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"msg":"Play not found"}`, rec.Body.String())
}

// An existing play fetched through another user's scope is denied, not leaked.
func TestGetPlay_ScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwner(testPower) // path scope /users/2/..., play belongs to user 1

	env.mock.ExpectQuery("FROM plays").WithArgs(int64(9)).
		WillReturnRows(playRows(models.Play{ID: 9, UserID: 1, GameID: 3, PlayedAt: time.Unix(0, 0), JSONAdditionalData: `{}`}))

	rec := env.do(t, "GET", "/users/2/plays/9", "", nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"msg":"Play is not of this user"}`, rec.Body.String())
}

const playBody = `{"name":"evening round","additional_data":{"a":"b"},"played_at":1487000000,"game_id":3}`

func TestCreatePlay_Own(t *testing.T) {
	env := newTestEnv(t)
	header := env.authHeader(t, testNormal)
	env.expectOwner(testNormal)

	env.mock.ExpectQuery("SELECT EXISTS").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	env.mock.ExpectQuery("INSERT INTO plays").
		WithArgs(int64(1), int64(3), "evening round", time.Unix(1487000000, 0).UTC(), `{"a":"b"}`).
		WillReturnRows(insertReturning(9))

	rec := env.do(t, "POST", "/users/1/plays/", playBody, header)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decodeBody[map[string]any](t, rec)
	assert.Equal(t, float64(9), got["id"])
	assert.Equal(t, float64(1487000000), got["played_at"])
	assert.Equal(t, map[string]any{"a": "b"}, got["additional_data"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreatePlay_ForOtherWithoutPower(t *testing.T) {
	env := newTestEnv(t)
	header := env.authHeader(t, testNormal)
	env.expectOwner(models.User{ID: 50, Name: "play_owner", Email: "play_owner@test.com", Role: models.RoleNormal})

	rec := env.do(t, "POST", "/users/50/plays/", playBody, header)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"msg":"You are not authorized to create plays"}`, rec.Body.String())
}

func TestCreatePlay_ForOtherWithPower(t *testing.T) {
	env := newTestEnv(t)
	header := env.authHeader(t, testPower)
	owner := models.User{ID: 50, Name: "play_owner", Email: "play_owner@test.com", Role: models.RoleNormal}
	env.expectOwner(owner)

	env.mock.ExpectQuery("SELECT EXISTS").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	env.mock.ExpectQuery("INSERT INTO plays").
		WithArgs(int64(50), int64(3), "evening round", sqlmock.AnyArg(), `{"a":"b"}`).
		WillReturnRows(insertReturning(10))

	rec := env.do(t, "POST", "/users/50/plays/", playBody, header)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decodeBody[map[string]any](t, rec)
	assert.Equal(t, float64(50), got["user_id"])
}

func TestCreatePlay_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwner(testNormal)

	rec := env.do(t, "POST", "/users/1/plays/", playBody, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePlay_UnknownGame(t *testing.T) {
	env := newTestEnv(t)
	header := env.authHeader(t, testNormal)
	env.expectOwner(testNormal)

	env.mock.ExpectQuery("SELECT EXISTS").WithArgs(int64(-1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	rec := env.do(t, "POST", "/users/1/plays/",
		`{"name":"x","additional_data":{"a":"b"},"played_at":1487000000,"game_id":-1}`, header)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := decodeBody[utils.FieldErrors](t, rec)
	require.Len(t, errs, 1)
	assert.Equal(t, "game_id", errs[0].Param)
	assert.Equal(t, "Game_id inserted doesn't exist", errs[0].Msg)
}

func TestCreatePlay_Validation(t *testing.T) {
	env := newTestEnv(t)
	header := env.authHeader(t, testNormal)
	env.expectOwner(testNormal)

	rec := env.do(t, "POST", "/users/1/plays/", `{"name":""}`, header)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := decodeBody[utils.FieldErrors](t, rec)
	params := make([]string, 0, len(errs))
	for _, e := range errs {
		params = append(params, e.Param)
	}
	assert.ElementsMatch(t, []string{"name", "additional_data", "played_at", "game_id"}, params)
}
