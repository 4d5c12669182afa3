package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParamAndQueryIDs(t *testing.T) {
	r := gin.New()
	r.GET("/x/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		prof, ok := queryID(c, "professional_id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "prof": prof})
	})

	cases := []struct {
		url  string
		want int
	}{
		{"/x/5", http.StatusOK},
		{"/x/5?professional_id=2", http.StatusOK},
		{"/x/0", http.StatusBadRequest},
		{"/x/abc", http.StatusBadRequest},
		{"/x/5?professional_id=-1", http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.url, nil))
		if w.Code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.url, w.Code, tc.want)
		}
	}
}

func TestUniqueIDs(t *testing.T) {
	got := uniqueIDs([]uint{3, 1, 3, 2, 1})
	if len(got) != 3 || got[0] != 3 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("uniqueIDs = %v", got)
	}
}

func TestReplyWebhookToken(t *testing.T) {
	post := func(h *ReminderHandler, token string) int {
		r := gin.New()
		r.POST("/reply", h.Reply)
		req := httptest.NewRequest(http.MethodPost, "/reply", strings.NewReader(`{}`))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	disabled := NewReminderHandler(nil, nil, nil, "", zap.NewNop())
	if code := post(disabled, "anything"); code != http.StatusUnauthorized {
		t.Fatalf("unconfigured webhook status = %d", code)
	}

	h := NewReminderHandler(nil, nil, nil, "s3cret", zap.NewNop())
	if code := post(h, "wrong"); code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d", code)
	}
	// Right token, empty body: rejected by binding before any use case runs.
	if code := post(h, "s3cret"); code != http.StatusBadRequest {
		t.Fatalf("empty body status = %d", code)
	}
}
