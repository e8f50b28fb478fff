package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newLimitedHandler(t *testing.T, limit int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	mw := RateLimitMiddleware(client, RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Minute,
		KeyPrefix:         "test_rate_limit",
	}, zap.NewNop())

	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})), mr
}

func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("exactly the first N requests of a window pass", prop.ForAll(
		func(limit, excess int) bool {
			handler, mr := newLimitedHandler(t, limit)
			defer mr.FlushAll()

			passed, blocked := 0, 0
			for i := 0; i < limit+excess; i++ {
				req := httptest.NewRequest(http.MethodPost, "/cart/add", nil)
				req.RemoteAddr = "192.168.1.100"
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusOK:
					passed++
				case http.StatusTooManyRequests:
					blocked++
				}
			}
			return passed == limit && blocked == excess
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimitKeysAuthenticatedUsersSeparately(t *testing.T) {
	handler, _ := newLimitedHandler(t, 1)

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.RemoteAddr = "10.0.0.1"
		req = req.WithContext(WithUser(req.Context(), userID, "buyer"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("u1"); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send("u2"); code != http.StatusOK {
		t.Errorf("expected a second user behind the same address to pass, got %d", code)
	}
	if code := send("u1"); code != http.StatusTooManyRequests {
		t.Errorf("expected u1 to be limited, got %d", code)
	}
}

func TestRateLimitResponseHeadersAndBody(t *testing.T) {
	handler, _ := newLimitedHandler(t, 1)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Header().Get("X-RateLimit-Limit") != "1" || first.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("unexpected headers: %v", first.Header())
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After on a limited response")
	}

	var body ErrorResponse
	if err := json.NewDecoder(second.Body).Decode(&body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Error != "Rate limit exceeded" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected requests to pass when redis is down, got %d", w.Code)
		}
	}
}
