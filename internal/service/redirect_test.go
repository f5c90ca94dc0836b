package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"talos/internal/utils"
)

func init() {
	utils.TestInitLogger()
}

func TestRedirectResolver_Chain(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/c", http.StatusFound)
	})
	mux.HandleFunc("/c", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusSeeOther)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	r := NewRedirectResolver()
	res := r.Resolve(context.Background(), ts.URL+"/a")

	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.FinalURL != ts.URL+"/final" {
		t.Errorf("final URL = %s, want %s/final", res.FinalURL, ts.URL)
	}
	if len(res.Chain) != 3 {
		t.Fatalf("expected 3 hops, got %d", len(res.Chain))
	}

	wantStatus := []int{301, 302, 303}
	wantPath := []string{"/a", "/b", "/c"}
	var prevLatency float64
	for i, hop := range res.Chain {
		if hop.StatusCode != wantStatus[i] {
			t.Errorf("hop %d status = %d, want %d", i, hop.StatusCode, wantStatus[i])
		}
		if hop.URL != ts.URL+wantPath[i] {
			t.Errorf("hop %d url = %s, want %s%s", i, hop.URL, ts.URL, wantPath[i])
		}
		if hop.LatencyMs < prevLatency {
			t.Errorf("hop %d latency %v decreased below %v", i, hop.LatencyMs, prevLatency)
		}
		prevLatency = hop.LatencyMs
	}
}

func TestRedirectResolver_NoRedirects(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != defaultUserAgent {
			t.Errorf("unexpected User-Agent: %s", ua)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	res := NewRedirectResolver().Resolve(context.Background(), ts.URL)
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.FinalURL != ts.URL {
		t.Errorf("final URL = %s, want %s", res.FinalURL, ts.URL)
	}
	if len(res.Chain) != 0 {
		t.Errorf("expected empty chain, got %v", res.Chain)
	}
}

// Network failures are recoverable: the result keeps the input URL so the
// pipeline can continue with the best-known hostname.
func TestRedirectResolver_FailureFallsBack(t *testing.T) {
	t.Parallel()
	target := "http://invalid-host-that-does-not-exist.test/"
	res := NewRedirectResolver().Resolve(context.Background(), target)

	if res.Error == "" {
		t.Fatal("expected an error for unreachable host")
	}
	if res.FinalURL != target {
		t.Errorf("final URL = %s, want input %s", res.FinalURL, target)
	}
	if len(res.Chain) != 0 {
		t.Errorf("expected empty chain on failure, got %v", res.Chain)
	}
}

func TestRedirectResolver_LoopDetected(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/y", http.StatusFound)
	})
	mux.HandleFunc("/y", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/x", http.StatusFound)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	res := NewRedirectResolver().Resolve(context.Background(), ts.URL+"/x")
	if res.Error == "" {
		t.Fatal("expected loop error")
	}
	if res.FinalURL != ts.URL+"/x" {
		t.Errorf("final URL = %s, want input", res.FinalURL)
	}
}

func TestRedirectResolver_RelativeLocation(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "landing")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	res := NewRedirectResolver().Resolve(context.Background(), ts.URL+"/start")
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.FinalURL != ts.URL+"/landing" {
		t.Errorf("relative Location not resolved, final = %s", res.FinalURL)
	}
}
