package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/statistics", nil))
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/statistics", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("HSTS = %q", got)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantAllow  string
	}{
		{"no origin header", []string{"*"}, http.MethodGet, "", false, http.StatusOK, ""},
		{"any origin", []string{"*"}, http.MethodGet, "http://localhost:3000", false, http.StatusOK, "*"},
		{"listed origin", []string{"http://dash.local"}, http.MethodGet, "http://dash.local", false, http.StatusOK, "http://dash.local"},
		{"unlisted origin", []string{"http://dash.local"}, http.MethodGet, "http://evil.local", false, http.StatusOK, ""},
		{"preflight", []string{"*"}, http.MethodOptions, "http://localhost:3000", true, http.StatusNoContent, "*"},
		{"unlisted preflight", []string{"http://dash.local"}, http.MethodOptions, "http://evil.local", true, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCORSConfig()
			cfg.AllowedOrigins = tt.origins
			h := CORS(cfg)(okHandler)

			req := httptest.NewRequest(tt.method, "/transactions", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Fatalf("allow origin = %q, want %q", got, tt.wantAllow)
			}
			if tt.preflight && tt.wantStatus == http.StatusNoContent && rec.Header().Get("Access-Control-Allow-Methods") == "" {
				t.Fatalf("preflight must list allowed methods")
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	r := NewClientIPResolver()
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct public peer", "203.0.113.7:5555", "198.51.100.1", "", "203.0.113.7"},
		{"trusted proxy with xff", "10.0.0.2:443", "198.51.100.1, 10.0.0.2", "", "198.51.100.1"},
		{"trusted proxy with x-real-ip", "127.0.0.1:80", "", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy with garbage", "192.168.1.1:80", "not-an-ip", "", "192.168.1.1"},
		{"unparseable remote", "pipe", "", "", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := r.ClientIP(req); got != tt.want {
				t.Fatalf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}

	if err := r.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Fatalf("expected CIDR parse error")
	}
}
