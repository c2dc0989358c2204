package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TTTT0803/VKUMentor-App/internal/auth"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestAuthInjectsClaims(t *testing.T) {
	mgr := auth.NewJWTManager(strings.Repeat("s", 32), time.Minute)
	token, _, err := mgr.GenerateAccessToken("u1", "u1@gmail.com", "mentor")
	require.NoError(t, err)

	var subject, role, email string
	h := Auth(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = GetSubject(r.Context())
		role = GetRole(r.Context())
		email = GetEmail(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "u1", subject)
	require.Equal(t, "mentor", role)
	require.Equal(t, "u1@gmail.com", email)

	other := auth.NewJWTManager(strings.Repeat("x", 32), time.Minute)
	forged, _, err := other.GenerateAccessToken("u1", "u1@gmail.com", "admin")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	res := httptest.NewRecorder()
	Auth(mgr)(okHandler).ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestIPRateLimit(t *testing.T) {
	h := IPRateLimit(NewRateLimiter(0.001, 2))(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		res := httptest.NewRecorder()
		h.ServeHTTP(res, req)
		codes = append(codes, res.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "10.0.0.2")
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestUserRateLimitSkipsAnonymous(t *testing.T) {
	h := UserRateLimit(NewRateLimiter(0.001, 1))(okHandler)
	for i := 0; i < 3; i++ {
		res := httptest.NewRecorder()
		h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, res.Code)
	}
}

func TestCORSWildcardRequiresSubdomain(t *testing.T) {
	h := CORS([]string{"*.vkumentor.vn", "http://localhost:5173"})(okHandler)

	cases := map[string]bool{
		"https://app.vkumentor.vn": true,
		"https://vkumentor.vn":     false,
		"http://localhost:5173":    true,
		"https://evil.example.com": false,
	}
	for origin, allowed := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", origin)
		res := httptest.NewRecorder()
		h.ServeHTTP(res, req)
		if allowed {
			require.Equal(t, origin, res.Header().Get("Access-Control-Allow-Origin"), origin)
		} else {
			require.Empty(t, res.Header().Get("Access-Control-Allow-Origin"), origin)
		}
	}
}

func TestRecoverWritesEnvelope(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, res.Code)
	require.Contains(t, res.Body.String(), `"INTERNAL"`)
}
