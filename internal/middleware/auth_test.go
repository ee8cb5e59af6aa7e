package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func router(a *Auth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ok := func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"actor": p.Actor()})
	}
	r.GET("/admin", a.Authenticate(), a.RequireAdmin(), ok)
	r.GET("/customers/:phone/orders", a.Authenticate(), RequireCustomerOrAdmin("phone"), ok)
	return r
}

func do(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminGate(t *testing.T) {
	a := NewAuth(secret, []string{"Ops@Example.com"}, []string{"key-1"})
	r := router(a)

	cases := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"malformed", map[string]string{"Authorization": "Token abc"}, http.StatusUnauthorized},
		{"bad signature", map[string]string{"Authorization": "Bearer " + jwtWithSecret(t, "other")}, http.StatusUnauthorized},
		{"customer", map[string]string{"Authorization": "Bearer " + sign(t, jwt.MapClaims{"phone_number": "+919876543210"})}, http.StatusForbidden},
		{"admin claim", map[string]string{"Authorization": "Bearer " + sign(t, jwt.MapClaims{"admin": true})}, http.StatusOK},
		{"admin role", map[string]string{"Authorization": "Bearer " + sign(t, jwt.MapClaims{"role": "admin"})}, http.StatusOK},
		{"allow-listed email", map[string]string{"Authorization": "Bearer " + sign(t, jwt.MapClaims{"email": "ops@example.com"})}, http.StatusOK},
		{"expired", map[string]string{"Authorization": "Bearer " + sign(t, jwt.MapClaims{"admin": true, "exp": time.Now().Add(-time.Minute).Unix()})}, http.StatusUnauthorized},
		{"api key", map[string]string{"X-API-Key": "key-1"}, http.StatusOK},
		{"wrong api key", map[string]string{"X-API-Key": "key-2"}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, "/admin", tc.headers)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func jwtWithSecret(t *testing.T, other string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"admin": true}).SignedString([]byte(other))
	require.NoError(t, err)
	return s
}

func TestCustomerMayOnlyReadOwnPhone(t *testing.T) {
	a := NewAuth(secret, nil, []string{"key-1"})
	r := router(a)
	customer := "Bearer " + sign(t, jwt.MapClaims{"phone_number": "+919876543210", "sub": "uid-1"})

	w := do(r, "/customers/%2B919876543210/orders", map[string]string{"Authorization": customer})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "uid-1")

	w = do(r, "/customers/%2B919000000000/orders", map[string]string{"Authorization": customer})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	w = do(r, "/customers/%2B919000000000/orders", map[string]string{"X-API-Key": "key-1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIssueAdminTokenVerifies(t *testing.T) {
	a := NewAuth(secret, nil, nil)
	tok, expires, err := a.IssueAdminToken("user-1", "admin@example.com", time.Hour)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	p, err := a.Verify(tok)
	require.NoError(t, err)
	assert.True(t, p.Admin)
	assert.Equal(t, "admin@example.com", p.Actor())
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	a := NewAuth(secret, nil, nil)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"admin": true}).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = a.Verify(tok)
	assert.Error(t, err)

	// Identity-provider ID tokens are RS256; only locally signed HS256 passes.
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	idToken, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"phone_number": "+919876543210",
		"exp":          time.Now().Add(time.Hour).Unix(),
	}).SignedString(key)
	require.NoError(t, err)
	_, err = a.Verify(idToken)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}
