package services

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"affilink/internal/config"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestHTTPGeoClient(t *testing.T) {
	t.Run("Resolves Country", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"countryCode":"DE"}`))
		}))
		defer ts.Close()

		client := NewHTTPGeoClient(ts.URL+"/%s", "IN", time.Second, testLogger())
		assert.Equal(t, "DE", client.Country(context.Background(), "93.184.216.34"))
	})

	t.Run("Timeout Falls Back", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			w.Write([]byte(`{"countryCode":"DE"}`))
		}))
		defer ts.Close()

		client := NewHTTPGeoClient(ts.URL+"/%s", "IN", 50*time.Millisecond, testLogger())

		start := time.Now()
		country := client.Country(context.Background(), "93.184.216.34")
		assert.Equal(t, "IN", country)
		assert.Less(t, time.Since(start), 250*time.Millisecond)
	})

	t.Run("Non-2xx Falls Back", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer ts.Close()

		client := NewHTTPGeoClient(ts.URL+"/%s", "IN", time.Second, testLogger())
		assert.Equal(t, "IN", client.Country(context.Background(), "93.184.216.34"))
	})

	t.Run("Bad Payload Falls Back", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer ts.Close()

		client := NewHTTPGeoClient(ts.URL+"/%s", "IN", time.Second, testLogger())
		assert.Equal(t, "IN", client.Country(context.Background(), "93.184.216.34"))
	})

	t.Run("Network Error Falls Back", func(t *testing.T) {
		client := NewHTTPGeoClient("http://localhost:1/%s", "IN", 200*time.Millisecond, testLogger())
		assert.Equal(t, "IN", client.Country(context.Background(), "93.184.216.34"))
	})

	t.Run("Local IPs Skip The Lookup", func(t *testing.T) {
		var hits int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.Write([]byte(`{"countryCode":"DE"}`))
		}))
		defer ts.Close()

		client := NewHTTPGeoClient(ts.URL+"/%s", "IN", time.Second, testLogger())
		assert.Equal(t, "IN", client.Country(context.Background(), "127.0.0.1"))
		assert.Equal(t, "IN", client.Country(context.Background(), "192.168.1.10"))
		assert.Equal(t, "IN", client.Country(context.Background(), "not-an-ip"))
		assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
	})
}

func TestMMDBResolver(t *testing.T) {
	t.Run("Missing Database Falls Back", func(t *testing.T) {
		resolver := NewMMDBResolver(config.Config{GeoFallbackCountry: "IN"}, testLogger())
		assert.Equal(t, "IN", resolver.Country(context.Background(), "93.184.216.34"))
	})

	t.Run("Local IP Falls Back", func(t *testing.T) {
		resolver := NewMMDBResolver(config.Config{GeoFallbackCountry: "IN"}, testLogger())
		assert.Equal(t, "IN", resolver.Country(context.Background(), "::1"))
	})
}
