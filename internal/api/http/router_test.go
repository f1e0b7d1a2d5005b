package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/intervention-service/internal/api/http/handlers"
	"github.com/spec-kit/intervention-service/internal/auth"
	"github.com/spec-kit/intervention-service/internal/config"
	"github.com/spec-kit/intervention-service/internal/domain"
	"github.com/spec-kit/intervention-service/internal/observability"
	"github.com/spec-kit/intervention-service/internal/service"
	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

type stubUsers map[string]*domain.User

func (s stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := s[id]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app     *fiber.App
	tokens  *auth.TokenManager
	metrics *observability.Metrics
}

// newTestServer wires real handlers and services without repositories.
// Every request it serves must be decided before the first repository call.
func newTestServer(t *testing.T, deps map[string]handlers.Pinger) *testServer {
	t.Helper()
	users := stubUsers{
		"admin-1":  {ID: "admin-1", Username: "root", Role: domain.RoleAdmin},
		"client-1": {ID: "client-1", Username: "dupont", Role: domain.RoleClient},
		"int-1":    {ID: "int-1", Username: "ana", Role: domain.RoleIntervenant},
	}
	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5}, nil)
	dashboards := service.NewDashboardService(service.DashboardDependencies{})
	scheduling := service.NewSchedulingService(config.SchedulingConfig{}, service.SchedulingDependencies{})
	sessions := service.NewSessionService(config.ToggleConfig{}, service.SessionDependencies{})
	cancellation := service.NewCancellationService(service.CancellationDependencies{})
	roster := service.NewRosterService(config.AuthConfig{}, service.RosterDependencies{})

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("intervention-service", "test", deps),
		Auth:           handlers.NewAuthHandler(authService),
		Intervenant:    handlers.NewIntervenantHandler(dashboards, scheduling, sessions, cancellation),
		Client:         handlers.NewClientHandler(dashboards),
		Admin:          handlers.NewAdminHandler(dashboards, scheduling, cancellation, roster),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users),
	})
	return &testServer{app: app, tokens: authService.TokenManager(), metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, userID, body string) *nethttp.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if userID != "" {
		// The middleware reloads the stored role, so the claim is irrelevant.
		token, _, err := s.tokens.GenerateToken(userID, domain.RoleIntervenant)
		require.NoError(t, err)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *nethttp.Response) map[string]any {
	t.Helper()
	var payload struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload.Error
}

func TestAdminRoutes_ClientIsRedirectedSilently(t *testing.T) {
	srv := newTestServer(t, nil)
	routes := []struct{ method, path, body string }{
		{fiber.MethodGet, "/dashboard/admin", ""},
		{fiber.MethodPost, "/admin/interventions/schedule", `{"intervenant_id":"int-1"}`},
		{fiber.MethodPost, "/admin/interventions/iv-1/resolve", `{"action":"approve"}`},
		{fiber.MethodGet, "/admin/deletion-requests", ""},
		{fiber.MethodPost, "/admin/intervenants", `{"username":"x","password":"y"}`},
		{fiber.MethodPut, "/admin/intervenants/int-1", `{"username":"x"}`},
		{fiber.MethodGet, "/admin/intervenants/int-1", ""},
		{fiber.MethodPost, "/admin/clients", `{"username":"x","password":"y","name":"X"}`},
		{fiber.MethodGet, "/admin/clients/cli-1", ""},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			resp := srv.do(t, route.method, route.path, "client-1", route.body)
			defer resp.Body.Close()

			assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
			assert.Equal(t, "/dashboard/client", resp.Header.Get(fiber.HeaderLocation))
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Empty(t, body)
		})
	}
	assert.NotEmpty(t, srv.metrics.Errors())
}

func TestIntervenantRoutes_AdminIsRedirectedHome(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/interventions/scan", "/interventions/iv-1/request-delete"} {
		resp := srv.do(t, fiber.MethodPost, path, "admin-1", "")
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/dashboard/admin", resp.Header.Get(fiber.HeaderLocation), path)
	}

	resp := srv.do(t, fiber.MethodGet, "/dashboard/client", "int-1", "")
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard/intervenant", resp.Header.Get(fiber.HeaderLocation))
}

func TestIndex_RedirectsToRoleDashboard(t *testing.T) {
	srv := newTestServer(t, nil)
	cases := map[string]string{
		"admin-1":  "/dashboard/admin",
		"client-1": "/dashboard/client",
		"int-1":    "/dashboard/intervenant",
	}
	for userID, want := range cases {
		resp := srv.do(t, fiber.MethodGet, "/", userID, "")
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, want, resp.Header.Get(fiber.HeaderLocation))
	}
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, fiber.MethodGet, "/dashboard/admin", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, apperrors.CodeUnauthorized, decodeError(t, resp)["code"])

	resp = srv.do(t, fiber.MethodGet, "/dashboard/admin", "ghost", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSchedule_MissingTimeIsBadRequest(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, fiber.MethodPost, "/interventions/schedule", "int-1",
		`{"client_id":"cli-1","service_id":"svc-1","date":"2024-01-15"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	errBody := decodeError(t, resp)
	assert.Equal(t, apperrors.CodeValidation, errBody["code"])
	assert.Equal(t, "all fields are required", errBody["message"])
}

func TestLogin_RequiresCredentials(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, fiber.MethodPost, "/auth/login", "", `{"username":"ana"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperrors.CodeValidation, decodeError(t, resp)["code"])
}

func TestUnknownRoute_IsNotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, fiber.MethodGet, "/nowhere", "admin-1", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperrors.CodeNotFound, decodeError(t, resp)["code"])
}

func TestHealth(t *testing.T) {
	healthy := newTestServer(t, map[string]handlers.Pinger{"postgres": stubPinger{}, "redis": stubPinger{}})
	resp := healthy.do(t, fiber.MethodGet, "/health/ready", "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = healthy.do(t, fiber.MethodGet, "/health/live", "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	degraded := newTestServer(t, map[string]handlers.Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{err: errors.New("connection refused")},
	})
	resp = degraded.do(t, fiber.MethodGet, "/health/ready", "", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	errBody := decodeError(t, resp)
	assert.Equal(t, "connection refused", errBody["details"].(map[string]any)["redis"])
}
