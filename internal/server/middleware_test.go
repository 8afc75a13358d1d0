package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	model "auction-engine/internal/models"
	"auction-engine/services/bidding/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

// whoami echoes the resolved caller
func whoami(c *gin.Context) {
	caller, ok := helpers.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user_id": "", "role": ""})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": caller.UserID, "role": caller.Role})
}

func TestIdentityMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name           string
		secret         string
		headers        map[string]string
		expectedStatus int
		expectedUser   string
		expectedRole   string
	}{
		{
			name:           "gateway_headers",
			headers:        map[string]string{HeaderUserID: "u1", HeaderUserRole: model.RoleBidder},
			expectedStatus: http.StatusOK,
			expectedUser:   "u1",
			expectedRole:   model.RoleBidder,
		},
		{
			name:           "anonymous_without_headers",
			expectedStatus: http.StatusOK,
		},
		{
			name:   "headers_ignored_when_secret_set",
			secret: testSecret,
			headers: map[string]string{
				HeaderUserID: "u1", HeaderUserRole: model.RoleSuperAdmin,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "valid_token_sub",
			secret: testSecret,
			headers: map[string]string{
				"Authorization": "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "u2", "role": model.RoleAuctioneer, "exp": exp}),
			},
			expectedStatus: http.StatusOK,
			expectedUser:   "u2",
			expectedRole:   model.RoleAuctioneer,
		},
		{
			name:   "valid_token_user_id_claim",
			secret: testSecret,
			headers: map[string]string{
				"Authorization": "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": "u3", "role": model.RoleBidder, "exp": exp}),
			},
			expectedStatus: http.StatusOK,
			expectedUser:   "u3",
			expectedRole:   model.RoleBidder,
		},
		{
			name:   "wrong_secret",
			secret: testSecret,
			headers: map[string]string{
				"Authorization": "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": "u2", "exp": exp}),
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "expired_token",
			secret: testSecret,
			headers: map[string]string{
				"Authorization": "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "u2", "exp": time.Now().Add(-time.Hour).Unix()}),
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "token_without_subject",
			secret: testSecret,
			headers: map[string]string{
				"Authorization": "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": model.RoleBidder, "exp": exp}),
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "not_bearer",
			secret:         testSecret,
			headers:        map[string]string{"Authorization": "Basic dTpw"},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(IdentityMiddleware(tc.secret))
			router.GET("/whoami", whoami)

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			if w.Code != http.StatusOK {
				require.Contains(t, resp, "error")
				return
			}
			require.Equal(t, tc.expectedUser, resp["user_id"])
			require.Equal(t, tc.expectedRole, resp["role"])
		})
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		roles          []string
		userID         string
		role           string
		expectedStatus int
		expectedMsg    string
	}{
		{name: "anonymous", roles: []string{model.RoleBidder}, expectedStatus: http.StatusUnauthorized, expectedMsg: "authentication required"},
		{name: "allowed_role", roles: []string{model.RoleBidder}, userID: "u1", role: model.RoleBidder, expectedStatus: http.StatusOK},
		{name: "one_of_many", roles: []string{model.RoleAuctioneer, model.RoleSuperAdmin}, userID: "u1", role: model.RoleSuperAdmin, expectedStatus: http.StatusOK},
		{name: "wrong_role", roles: []string{model.RoleAuctioneer}, userID: "u1", role: model.RoleBidder, expectedStatus: http.StatusForbidden, expectedMsg: "forbidden"},
		{name: "any_authenticated", userID: "u1", expectedStatus: http.StatusOK},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(IdentityMiddleware(""))
			router.GET("/guarded", RequireRole(tc.roles...), whoami)

			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			if tc.userID != "" {
				req.Header.Set(HeaderUserID, tc.userID)
				req.Header.Set(HeaderUserRole, tc.role)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			if tc.expectedMsg != "" {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				require.Equal(t, tc.expectedMsg, resp["message"])
			}
		})
	}
}
