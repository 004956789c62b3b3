// Package device derives session device metadata from the User-Agent header.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// Info is the device metadata stored on a session.
type Info struct {
	Name        string
	Platform    string
	Fingerprint string
}

// Service computes device fingerprints. A disabled service still names
// devices but never fingerprints them.
type Service struct {
	enabled bool
}

func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// Describe builds the Info recorded on a session for this User-Agent.
func (s *Service) Describe(userAgent string) Info {
	info := Info{Name: ParseUserAgent(userAgent), Fingerprint: s.ComputeFingerprint(userAgent)}
	if userAgent != "" {
		info.Platform = platformOf(useragent.New(userAgent))
	}
	return info
}

// ParseUserAgent returns a display name like "Chrome on Mac OS X 10_15_7".
func ParseUserAgent(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return unknownDevice
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.Join(strings.Fields(fmt.Sprintf("%s on %s", browser, os)), " ")
}

// ComputeFingerprint hashes the stable parts of a User-Agent: browser name,
// browser major version, OS and platform. Patch releases do not change it.
func (s *Service) ComputeFingerprint(userAgent string) string {
	if !s.enabled || userAgent == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	browser, version := ua.Browser()
	major, _, _ := strings.Cut(version, ".")
	parts := []string{browser, major, ua.OS(), ua.Platform()}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// CompareFingerprints reports whether the stored and current fingerprints
// match, and whether a mismatch should be treated as drift.
func (s *Service) CompareFingerprints(stored, current string) (matched bool, drift bool) {
	if stored == current {
		return true, false
	}
	return false, true
}

func platformOf(ua *useragent.UserAgent) string {
	switch {
	case ua.Bot():
		return "bot"
	case ua.Mobile():
		return "mobile"
	default:
		return "desktop"
	}
}
