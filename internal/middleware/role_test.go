package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func roleRouter(role string, setRole bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if setRole {
			c.Set(ContextUserRole, role)
		}
	})
	r.POST("/admin-only", RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		role    string
		setRole bool
		want    int
	}{
		{"admin passes", "admin", true, http.StatusOK},
		{"fan forbidden", "fan", true, http.StatusForbidden},
		{"talent forbidden", "talent", true, http.StatusForbidden},
		{"missing context unauthorized", "", false, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := roleRouter(tc.role, tc.setRole)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/admin-only", nil)
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}
