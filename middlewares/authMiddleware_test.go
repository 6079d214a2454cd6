package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"github.com/gin-gonic/gin"
)

func whoamiRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/whoami", RequireAuth(), func(c *gin.Context) {
		id, _ := utils.GetUserIdFromContext(c.Request.Context())
		username, _ := utils.GetUsernameFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": id, "username": username})
	})
	return r
}

func TestAuthMiddlewareStoresClaims(t *testing.T) {
	token, err := utils.JwtGenerate(7, "khebraAdmin", "Admin")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	whoamiRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, fragment := range []string{`"id":7`, `"username":"khebraAdmin"`} {
		if !strings.Contains(body, fragment) {
			t.Errorf("body %s missing %s", body, fragment)
		}
	}
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	whoamiRouter().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthBlocksAnonymous(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	whoamiRouter().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without a bearer token", w.Code)
	}
}
