package forex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLatest(t *testing.T) {
	t.Run("parses_rates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"date":"2024-03-01","base":"usd","rates":{"eur":"0.92","SEK":"10.45","USD":"1.0"}}`))
		}))
		defer srv.Close()

		client := NewClient(srv.Client(), srv.URL)
		quote, err := client.Latest(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if quote.Base != "USD" {
			t.Errorf("expected base USD, got %q", quote.Base)
		}
		if quote.Date != "2024-03-01" {
			t.Errorf("expected date 2024-03-01, got %q", quote.Date)
		}
		if got := quote.Rates["EUR"]; got != 0.92 {
			t.Errorf("expected EUR rate 0.92, got %f", got)
		}
		if got := quote.Rates["SEK"]; got != 10.45 {
			t.Errorf("expected SEK rate 10.45, got %f", got)
		}
	})

	t.Run("non_200_status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := NewClient(srv.Client(), srv.URL)
		if _, err := client.Latest(context.Background()); err == nil {
			t.Fatal("expected error for non-200 status")
		}
	})

	t.Run("invalid_rate_string", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"date":"2024-03-01","base":"USD","rates":{"EUR":"not-a-number"}}`))
		}))
		defer srv.Close()

		client := NewClient(srv.Client(), srv.URL)
		if _, err := client.Latest(context.Background()); err == nil {
			t.Fatal("expected error for invalid rate string")
		}
	})

	t.Run("empty_payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		client := NewClient(srv.Client(), srv.URL)
		if _, err := client.Latest(context.Background()); err == nil {
			t.Fatal("expected error for empty payload")
		}
	})

	t.Run("cancelled_context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"date":"2024-03-01","base":"USD","rates":{"EUR":"0.92"}}`))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := NewClient(srv.Client(), srv.URL)
		if _, err := client.Latest(ctx); err == nil {
			t.Fatal("expected error for cancelled context")
		}
	})
}
