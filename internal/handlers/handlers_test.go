package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ludolog/ludolog/internal/auth"
	"github.com/ludolog/ludolog/internal/models"
)

type testEnv struct {
	h      *Handler
	mock   sqlmock.Sqlmock
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens := auth.NewTokenService("test-secret", "example.com", 0)
	h := NewHandler(sqlx.NewDb(db, "pgx"), zerolog.Nop(), tokens)

	return &testEnv{h: h, mock: mock, router: h.Router()}
}

// do performs a request against the full router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = "127.0.0.1:12345"
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// authHeader mints a token for the user and queues the identity lookup the
// middleware performs.
func (e *testEnv) authHeader(t *testing.T, u models.User) http.Header {
	t.Helper()

	token, err := e.h.Tokens.Issue(u.ID)
	require.NoError(t, err)
	e.mock.ExpectQuery("FROM users").WithArgs(u.ID).WillReturnRows(userRows(u))

	return http.Header{"Authorization": {"Bearer " + token}}
}

func userRows(users ...models.User) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name", "email", "password", "role", "created_at", "updated_at"})
	for _, u := range users {
		created := u.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		updated := u.UpdatedAt
		if updated.IsZero() {
			updated = created
		}
		rows.AddRow(u.ID, u.Name, u.Email, u.Password, string(u.Role), created, updated)
	}
	return rows
}

func gameRows(games ...models.Game) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name", "json_designers", "cover", "created_at", "updated_at"})
	for _, g := range games {
		rows.AddRow(g.ID, g.Name, g.JSONDesigners, g.Cover, time.Now(), time.Now())
	}
	return rows
}

func playRows(plays ...models.Play) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "user_id", "game_id", "name", "played_at", "json_additional_data", "created_at", "updated_at"})
	for _, p := range plays {
		rows.AddRow(p.ID, p.UserID, p.GameID, p.Name, p.PlayedAt, p.JSONAdditionalData, time.Now(), time.Now())
	}
	return rows
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

// insertReturning mimics an INSERT ... RETURNING id, created_at, updated_at.
func insertReturning(id int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
		AddRow(id, testTime(), testTime())
}

func testTime() time.Time {
	return time.Date(2017, 2, 21, 20, 30, 47, 0, time.UTC)
}

var (
	testNormal = models.User{ID: 1, Name: "initial", Email: "initial@test.com", Role: models.RoleNormal}
	testPower  = models.User{ID: 2, Name: "poweruser1", Email: "poweruser1@test.com", Role: models.RolePower}
)
