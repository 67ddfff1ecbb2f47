package metadata

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"docregistry/pkg/requestcontext"
)

func TestMiddlewareHandler(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trusted    []string
		expectedIP string
	}{
		{
			name:       "ignores forwarding headers from untrusted peers",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			remoteAddr: "192.168.1.1:12345",
			expectedIP: "192.168.1.1",
		},
		{
			name:       "uses first forwarded hop behind a trusted proxy",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.7"},
			remoteAddr: "10.0.0.1:12345",
			trusted:    []string{"10.0.0.0/8"},
			expectedIP: "203.0.113.1",
		},
		{
			name:       "falls back to X-Real-IP behind a trusted proxy",
			headers:    map[string]string{"X-Real-IP": "198.51.100.4"},
			remoteAddr: "10.0.0.1:12345",
			trusted:    []string{"10.0.0.0/8"},
			expectedIP: "198.51.100.4",
		},
		{
			name:       "rejects a malformed forwarded address",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			remoteAddr: "10.0.0.1:12345",
			trusted:    []string{"10.0.0.0/8"},
			expectedIP: "10.0.0.1",
		},
		{
			name:       "handles bracketed IPv6 peers",
			remoteAddr: "[::1]:8080",
			expectedIP: "::1",
		},
		{
			name:       "unknown when peer address is missing",
			remoteAddr: "",
			expectedIP: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			for _, p := range tt.trusted {
				cfg.TrustedProxies = append(cfg.TrustedProxies, netip.MustParsePrefix(p))
			}

			var gotIP string
			handler := NewMiddleware(cfg).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotIP = requestcontext.ClientIP(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/verify/abc", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.expectedIP, gotIP)
		})
	}
}

func TestMiddlewareRecordsUserAgent(t *testing.T) {
	const firefox = "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"

	var gotUA, gotLabel string
	handler := NewMiddleware(nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = requestcontext.UserAgent(r.Context())
		gotLabel = requestcontext.ClientLabel(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", firefox)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, firefox, gotUA)
	assert.Contains(t, gotLabel, "Firefox on ")
}

func TestClientLabel(t *testing.T) {
	assert.Equal(t, "unknown client", ClientLabel(""))
	assert.Contains(t, ClientLabel("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"), "Chrome on Windows")
}
