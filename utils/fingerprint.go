package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gin-gonic/gin"
)

// Fingerprint derives the anonymous visitor key used to allow one rating per
// place. Visitors sharing an IP and identical browser headers collapse into
// one identity; a visitor who changes network or browser gets a new one.
func Fingerprint(ip, userAgent, acceptLanguage string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent + "|" + acceptLanguage))
	return hex.EncodeToString(sum[:])
}

// RequestFingerprint returns the fingerprint and client IP for a request.
func RequestFingerprint(c *gin.Context) (fingerprint, ip string) {
	ip = c.ClientIP()
	return Fingerprint(ip, c.GetHeader("User-Agent"), c.GetHeader("Accept-Language")), ip
}
