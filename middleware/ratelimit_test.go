package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sanjuan-tahitic/api-go/config"
	"github.com/sirupsen/logrus"
)

func TestRateLimitWithoutRedisPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	r := gin.New()
	r.POST("/api/calificaciones", RateLimit(config.RateLimitConfig{Capacity: 1, RefillTokens: 1, RefillInterval: time.Minute}, nil, log), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/calificaciones", nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("request %d: got %d", i, w.Code)
		}
	}
}

func TestRateLimitTokenBucket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := config.RateLimitConfig{Prefix: "rl", Capacity: 2, RefillTokens: 1, RefillInterval: time.Minute}
	r := gin.New()
	limited := RateLimit(cfg, rdb, log)
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.POST("/api/calificaciones", limited, ok)
	r.POST("/api/experiencias", limited, ok)

	send := func(path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = ip + ":5000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i, wantRemaining := range []string{"1", "0"} {
		w := send("/api/calificaciones", "198.51.100.7")
		if w.Code != http.StatusNoContent {
			t.Fatalf("request %d: got %d", i, w.Code)
		}
		if got := w.Header().Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Fatalf("request %d: remaining = %q, want %q", i, got, wantRemaining)
		}
		if got := w.Header().Get("X-RateLimit-Limit"); got != "2" {
			t.Fatalf("request %d: limit = %q", i, got)
		}
	}

	w := send("/api/calificaciones", "198.51.100.7")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("request past capacity: got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}
	var body struct {
		Error      string `json:"error"`
		RetryAfter int    `json:"retry_after"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error == "" || body.RetryAfter <= 0 || body.RetryAfter > 60 {
		t.Fatalf("unexpected body: %+v", body)
	}

	if w := send("/api/experiencias", "198.51.100.7"); w.Code != http.StatusNoContent {
		t.Fatalf("other route shares the bucket: got %d", w.Code)
	}
	if w := send("/api/calificaciones", "198.51.100.8"); w.Code != http.StatusNoContent {
		t.Fatalf("other client shares the bucket: got %d", w.Code)
	}
	if ttl := mr.TTL("rl:ip:198.51.100.7:route:POST /api/calificaciones"); ttl <= 0 {
		t.Fatalf("bucket has no expiry: %v", ttl)
	}
}

func TestBucketTTL(t *testing.T) {
	cases := []struct {
		cfg  config.RateLimitConfig
		want int64
	}{
		{config.RateLimitConfig{Capacity: 10, RefillTokens: 1, RefillInterval: 6 * time.Second}, 60},
		{config.RateLimitConfig{Capacity: 10, RefillTokens: 1, RefillInterval: time.Minute}, 600},
		{config.RateLimitConfig{Capacity: 10}, 3600},
	}
	for _, c := range cases {
		if got := bucketTTL(c.cfg); got != c.want {
			t.Errorf("bucketTTL(%+v) = %d, want %d", c.cfg, got, c.want)
		}
	}
}

func TestRateKeyUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var key string
	r := gin.New()
	r.GET("/lugares/:id", func(c *gin.Context) { key = rateKey("rl", c) })

	req := httptest.NewRequest(http.MethodGet, "/lugares/7", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	r.ServeHTTP(httptest.NewRecorder(), req)

	if key != "rl:ip:203.0.113.9:route:GET /lugares/:id" {
		t.Fatalf("key = %q", key)
	}
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]struct {
		header string
		want   string
		ok     bool
	}{
		"valid":       {"Bearer abc", "abc", true},
		"lower case":  {"bearer abc", "abc", true},
		"missing":     {"", "", false},
		"wrong type":  {"Basic abc", "", false},
		"empty token": {"Bearer  ", "", false},
	}
	for name, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			c.Request.Header.Set("Authorization", tc.header)
		}
		got, ok := bearerToken(c)
		if got != tc.want || ok != tc.ok {
			t.Errorf("%s: got (%q, %v), want (%q, %v)", name, got, ok, tc.want, tc.ok)
		}
	}
}
