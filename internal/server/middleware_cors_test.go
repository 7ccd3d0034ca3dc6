package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"codelearn/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frontendOrigin = "http://localhost:5173"

// middlewareApp mounts the global middleware chain in front of a trivial
// handler on every method of /ping and /health/check.
func middlewareApp(t *testing.T, origins string) *fiber.App {
	t.Helper()
	srv := &Server{config: &config.Config{AllowedOrigins: origins}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.All("/ping", ok)
	app.All("/health/check", ok)
	return app
}

func send(t *testing.T, app *fiber.App, method, path string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", frontendOrigin)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// exhaust spends the global limiter budget for the test client.
func exhaust(t *testing.T, app *fiber.App, method string) {
	t.Helper()
	for i := 0; i < 100; i++ {
		require.Equal(t, fiber.StatusOK, send(t, app, method, "/ping", nil).StatusCode, "request %d", i+1)
	}
}

func TestGlobalLimiter(t *testing.T) {
	t.Run("limited responses keep CORS headers", func(t *testing.T) {
		app := middlewareApp(t, frontendOrigin)
		exhaust(t, app, http.MethodGet)

		resp := send(t, app, http.MethodGet, "/ping", nil)
		assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, frontendOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight is never limited", func(t *testing.T) {
		app := middlewareApp(t, frontendOrigin)
		exhaust(t, app, http.MethodPost)
		require.Equal(t, fiber.StatusTooManyRequests, send(t, app, http.MethodPost, "/ping", nil).StatusCode)

		resp := send(t, app, http.MethodOptions, "/ping", map[string]string{
			"Access-Control-Request-Method":  http.MethodPost,
			"Access-Control-Request-Headers": "authorization,content-type",
		})
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Equal(t, frontendOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("health checks are never limited", func(t *testing.T) {
		app := middlewareApp(t, frontendOrigin)
		exhaust(t, app, http.MethodGet)
		assert.Equal(t, fiber.StatusOK, send(t, app, http.MethodGet, "/health/check", nil).StatusCode)
	})
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name    string
		origins string
		want    string
	}{
		{"configured origin", frontendOrigin, frontendOrigin},
		{"default dev origins", "", frontendOrigin},
		{"origin not listed", "https://codelearn.dev", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := send(t, middlewareApp(t, tt.origins), http.MethodGet, "/ping", nil)
			assert.Equal(t, tt.want, resp.Header.Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestSetupMiddleware_ResponseHeaders(t *testing.T) {
	resp := send(t, middlewareApp(t, ""), http.MethodGet, "/ping", nil)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "X-Request-Id", "X-Trace-ID"} {
		assert.NotEmpty(t, resp.Header.Get(h), h)
	}
}
