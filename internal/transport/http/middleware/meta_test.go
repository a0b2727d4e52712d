package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-registrar-portal/internal/application/audit"
	"github.com/stretchr/testify/assert"
)

func TestClientIP_XForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	assert.Equal(t, "1.2.3.4", clientIP(req))
}

func TestClientIP_RemoteAddrFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:54321"
	assert.Equal(t, "192.168.1.1", clientIP(req))
}

func TestRequestMeta_PopulatesAuditContext(t *testing.T) {
	var gotMeta audit.Meta
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMeta = audit.MetaFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:4444"
	req.Header.Set("User-Agent", "test-agent")
	rr := httptest.NewRecorder()
	RequestMeta(capture).ServeHTTP(rr, req)

	assert.Equal(t, "203.0.113.9", gotMeta.IPAddress)
	assert.Equal(t, "test-agent", gotMeta.UserAgent)
	assert.Empty(t, gotMeta.ActorID)
}
