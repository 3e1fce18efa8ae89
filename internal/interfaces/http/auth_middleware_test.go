package http_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/cargamex/logistica-api/internal/interfaces/http"
	"github.com/cargamex/logistica-api/pkg/jwt"
)

const testSecret = "secreto-de-prueba"

func appConAuth(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/protegido", apphttp.AuthMiddleware(testSecret), func(c *fiber.Ctx) error {
		return c.SendString(apphttp.GetUserID(c))
	})
	return app
}

func TestAuthMiddleware_TokenValido(t *testing.T) {
	app := appConAuth(t)

	token, err := jwt.Generate(testSecret, "usr-1", "operador", "logistica-api", 5)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protegido", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_Rechazos(t *testing.T) {
	app := appConAuth(t)

	otroSecreto, err := jwt.Generate("otro-secreto", "usr-1", "operador", "logistica-api", 5)
	require.NoError(t, err)

	expirado, err := jwt.Generate(testSecret, "usr-1", "operador", "logistica-api", -5)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"sin header", ""},
		{"sin esquema bearer", "Basic abc123"},
		{"bearer vacío", "Bearer "},
		{"firma de otro secreto", "Bearer " + otroSecreto},
		{"token expirado", "Bearer " + expirado},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protegido", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}
