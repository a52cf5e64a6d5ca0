package auth_test

import (
	"net/http"
	"net/http/httptest"
	"nextext/auth"
	"nextext/domain"
	"nextext/mocks"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestInterceptor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	validator := mocks.NewMockIAuthValidator(ctrl)

	router := gin.New()
	router.GET("/me", auth.Interceptor(validator), func(c *gin.Context) {
		id, ok := auth.UserIDFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	t.Run("should inject the user id for a valid token", func(t *testing.T) {
		req := require.New(t)
		validator.EXPECT().Validate(gomock.Any(), "good-token").Return(domain.Authenticated(12)).Times(1)
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.Header.Set("Authorization", "Bearer good-token")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		req.Equal(http.StatusOK, w.Code)
		req.JSONEq(`{"id": 12}`, w.Body.String())
	})

	t.Run("should answer 401 when the header is missing", func(t *testing.T) {
		req := require.New(t)
		validator.EXPECT().Validate(gomock.Any(), "").Return(domain.Rejected(domain.ReasonMissing)).Times(1)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		req.Equal(http.StatusUnauthorized, w.Code)
		req.Equal("Bearer", w.Header().Get("WWW-Authenticate"))
		req.Contains(w.Body.String(), `"reason":"missing"`)
	})

	t.Run("should answer 401 for a rejected token", func(t *testing.T) {
		req := require.New(t)
		validator.EXPECT().Validate(gomock.Any(), "stale").Return(domain.Rejected(domain.ReasonExpired)).Times(1)
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.Header.Set("Authorization", "bearer stale")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		req.Equal(http.StatusUnauthorized, w.Code)
	})
}

func TestBearerToken(t *testing.T) {
	req := require.New(t)
	req.Equal("abc", auth.BearerToken("Bearer abc"))
	req.Equal("abc", auth.BearerToken("  bearer   abc "))
	req.Empty(auth.BearerToken("Basic abc"))
	req.Empty(auth.BearerToken("abc"))
	req.Empty(auth.BearerToken(""))
}
