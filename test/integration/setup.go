package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	handler "github.com/vncsmyrnk/predixarena/internal/adapters/handler/http"
	repo "github.com/vncsmyrnk/predixarena/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
	"github.com/vncsmyrnk/predixarena/internal/core/services"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "integration-test-secret"

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Client      *http.Client
	Clock       *testclock.Clock
	TallySvc    ports.TallyService
	DBContainer testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func setupTestApp(t *testing.T) *TestApp {
	return setupTestAppWithVerifier(t, nil)
}

func setupTestAppWithVerifier(t *testing.T, verifier ports.TokenVerifier) *TestApp {
	t.Helper()

	ctx := context.Background()
	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	_, err = repo.Migrate(ctx, db, nil)
	require.NoError(t, err)

	eventRepo := repo.NewEventRepository(db)
	voteRepo := repo.NewVoteRepository(db)
	userRepo := repo.NewUserRepository(db)

	clk := testclock.NewClock(time.Now().UTC().Truncate(time.Second))
	authRepo := repo.NewAuthRepository(db)
	authSvc := services.NewAuthService(userRepo, authRepo, verifier, clk, services.AuthConfig{
		JWTSecret:      []byte(testSecret),
		GoogleClientID: "test-client-id",
		BcryptCost:     bcrypt.MinCost,
	})
	eventSvc := services.NewEventService(eventRepo, clk, nil)
	voteSvc := services.NewVoteService(eventRepo, voteRepo, clk, nil)
	tallySvc := services.NewTallyService(eventRepo, repo.NewTallyRepository(db), nil)

	cookies := handler.CookieConfig{SameSite: http.SameSiteLaxMode}
	router := handler.NewHandler(handler.RouterConfig{
		AllowedOrigins: []string{"*"},
		Health:         db.PingContext,
	}, handler.Handlers{
		Auth:         handler.NewAuthenticator(authSvc, nil),
		AuthHandler:  handler.NewAuthHandler(authSvc, "https://example.com/redirect", cookies, 15*time.Minute, time.Hour, nil),
		EventHandler: handler.NewEventHandler(eventSvc, nil),
		VoteHandler:  handler.NewVoteHandler(voteSvc, handler.NewVoterResolver(authSvc, cookies, time.Hour), nil),
		UserHandler:  handler.NewUserHandler(services.NewUserService(userRepo, authRepo), nil),
	})

	server := httptest.NewServer(router)

	return &TestApp{
		DB:          db,
		Server:      server,
		Client:      server.Client(),
		Clock:       clk,
		TallySvc:    tallySvc,
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

// createUserAndToken inserts a user with the given role and returns an access
// token signed the same way the auth service signs them.
func createUserAndToken(t *testing.T, db *sql.DB, role domain.Role) string {
	t.Helper()

	userID := uuid.New()
	email := fmt.Sprintf("user-%s@example.com", userID)
	superUser := role == domain.RoleAdmin
	_, err := db.Exec("INSERT INTO users (id, email, display_name, role, is_super_user) VALUES ($1, $2, $3, $4, $5)",
		userID, email, "User "+userID.String()[:8], string(role), superUser)
	require.NoError(t, err)

	claims := jwt.MapClaims{
		"sub":           userID.String(),
		"aud":           "access",
		"email":         email,
		"role":          string(role),
		"is_super_user": superUser,
		"exp":           time.Now().Add(time.Hour).Unix(),
		"iat":           time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signedToken
}

type apiResponse struct {
	Status  int
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string            `json:"code"`
		Message   string            `json:"message"`
		Fields    map[string]string `json:"fields"`
		Retryable bool              `json:"retryable"`
	} `json:"error"`
	Cookies []*http.Cookie
}

func (app *TestApp) call(t *testing.T, client *http.Client, method, path, token string, body any) apiResponse {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, app.Server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	}

	if client == nil {
		client = app.Client
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := apiResponse{Status: resp.StatusCode, Cookies: resp.Cookies()}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decodeData[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}

// newApprovedEvent creates an event as a fresh user and approves it as a
// fresh admin.
func (app *TestApp) newApprovedEvent(t *testing.T, title string, outcomes ...string) domain.Event {
	t.Helper()

	if len(outcomes) == 0 {
		outcomes = []string{"Yes", "No"}
	}
	owner := createUserAndToken(t, app.DB, domain.RoleGeneral)
	admin := createUserAndToken(t, app.DB, domain.RoleAdmin)

	resp := app.call(t, nil, http.MethodPost, "/api/events", owner, map[string]any{
		"title":                title,
		"description":          "Settled by the public record.",
		"category":             "Sports",
		"outcomes":             outcomes,
		"resolution_source":    "https://example.com/source",
		"resolution_date_time": app.Clock.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.Status)
	event := decodeData[domain.Event](t, resp)

	resp = app.call(t, nil, http.MethodPatch, fmt.Sprintf("/api/events/%s/status", event.ID), admin, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, resp.Status)
	return decodeData[domain.Event](t, resp)
}
