package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, baseURL string) Client {
	t.Helper()
	c, err := NewInstrumentedClient(
		WithBaseURL(baseURL),
		WithProviderName("test"),
	)
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}
	return c
}

func TestGetDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/price/XLM" {
			t.Errorf("path = %q, want /price/XLM", r.URL.Path)
		}
		if got := r.URL.Query().Get("periods"); got != "5" {
			t.Errorf("periods = %q, want 5", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"asset":"XLM","price":"1.25"}`))
	}))
	defer srv.Close()

	var out struct {
		Asset string `json:"asset"`
		Price string `json:"price"`
	}

	resp, err := newTestClient(t, srv.URL).NewRequest().
		SetResult(&out).
		SetQueryParam("periods", "5").
		Get(context.Background(), "/price/XLM")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("status = %d, want success", resp.StatusCode)
	}
	if out.Asset != "XLM" || out.Price != "1.25" {
		t.Errorf("decoded = %+v, want XLM/1.25", out)
	}
}

func TestErrorStatusSkipsDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var out struct{ Price string }
	resp, err := newTestClient(t, srv.URL).NewRequest().
		SetResult(&out).
		Get(context.Background(), "/price/XLM")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// The caller inspects the status; the non-JSON error body must not fail
	// the request.
	if !resp.IsError() {
		t.Errorf("status = %d, want error", resp.StatusCode)
	}
	if out.Price != "" {
		t.Errorf("result decoded from an error body: %+v", out)
	}
}

func TestMalformedSuccessBodyIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	var out struct{ Price string }
	_, err := newTestClient(t, srv.URL).NewRequest().
		SetResult(&out).
		Get(context.Background(), "/price/XLM")
	if err == nil {
		t.Fatal("expected a decode error for a malformed success body")
	}
}

func TestPostEncodesJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q, want application/json", got)
		}
		var in struct {
			Asset string `json:"asset"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if in.Asset != "XLM" {
			t.Errorf("asset = %q, want XLM", in.Asset)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL).NewRequest().
		SetBody(map[string]string{"asset": "XLM"}).
		Post(context.Background(), "/quotes")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
}
