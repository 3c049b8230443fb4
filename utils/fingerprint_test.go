package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestFingerprintIsStable(t *testing.T) {
	a := Fingerprint("10.0.0.1", "Mozilla/5.0", "es-MX")
	b := Fingerprint("10.0.0.1", "Mozilla/5.0", "es-MX")
	if a != b {
		t.Fatal("same inputs must give the same fingerprint")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == Fingerprint("10.0.0.2", "Mozilla/5.0", "es-MX") {
		t.Fatal("different IP must change the fingerprint")
	}
	if a == Fingerprint("10.0.0.1", "Mozilla/5.0", "en-US") {
		t.Fatal("different language must change the fingerprint")
	}
}

func TestRequestFingerprint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest("POST", "/api/calificaciones", nil)
	req.RemoteAddr = "192.168.1.20:5555"
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Accept-Language", "es")
	c.Request = req

	fp, ip := RequestFingerprint(c)
	if ip != "192.168.1.20" {
		t.Fatalf("ip = %q", ip)
	}
	if fp != Fingerprint("192.168.1.20", "test-agent", "es") {
		t.Fatal("fingerprint does not match request headers")
	}
}
