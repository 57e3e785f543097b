package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOriginStripsAuthHeadersAndForwardsIP(t *testing.T) {
	var gotAuth, gotXPayment, gotXFF, gotUA string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotXPayment = r.Header.Get("X-402-Payment")
		gotXFF = r.Header.Get("X-Forwarded-For")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer origin.Close()

	p, err := New(origin.URL, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/article", nil)
	req.RemoteAddr = "203.0.113.5:4321"
	req.Header.Set("Authorization", "Bearer 0xdead")
	req.Header.Set("X-402-Payment", "0xdead,1000")
	req.Header.Set("User-Agent", "GPTBot/1.0")

	w := httptest.NewRecorder()
	p.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotAuth != "" {
		t.Errorf("Authorization leaked to origin: %q", gotAuth)
	}
	if gotXPayment != "" {
		t.Errorf("X-402-Payment leaked to origin: %q", gotXPayment)
	}
	if gotXFF != "203.0.113.5" {
		t.Errorf("X-Forwarded-For = %q, want 203.0.113.5", gotXFF)
	}
	if gotUA != "GPTBot/1.0" {
		t.Errorf("User-Agent = %q, want preserved", gotUA)
	}
}

func TestOriginErrorReturns502(t *testing.T) {
	p, err := New("http://127.0.0.1:1", nil) // nothing listens here
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	p.ServeHTTP(w, req)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}
