package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movieticket/ticket-booking/internal/utils"
)

const testSecret = "test-secret"

func doRequest(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": UserID(c),
			"role":    c.Get("role"),
		})
	}, JWTAuth(testSecret))

	// no token
	rec := doRequest(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// garbage token
	rec = doRequest(e, "not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// token signed with another secret
	other, err := utils.NewAccessToken("other-secret", 7, "CUSTOMER", 15)
	require.NoError(t, err)
	rec = doRequest(e, other.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid token passes and exposes the identity
	at, err := utils.NewAccessToken(testSecret, 7, "CUSTOMER", 15)
	require.NoError(t, err)
	rec = doRequest(e, at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
	assert.Contains(t, rec.Body.String(), `"role":"CUSTOMER"`)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, JWTAuth(testSecret), RequireRole("ADMIN"))

	customer, err := utils.NewAccessToken(testSecret, 7, "CUSTOMER", 15)
	require.NoError(t, err)
	rec := doRequest(e, customer.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, err := utils.NewAccessToken(testSecret, 1, "ADMIN", 15)
	require.NoError(t, err)
	rec = doRequest(e, admin.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserIDWithoutAuth(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, uint64(0), UserID(c))
	assert.Equal(t, "anon", rateKeyUserID(c))
}
