package middleware

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

// scp-like git address: user@host:path
var scpLike = regexp.MustCompile(`^[A-Za-z0-9._-]+@([A-Za-z0-9.-]+):[A-Za-z0-9._/~-]+$`)

// ValidateRepoURL accepts http(s), ssh and git URLs plus scp-like
// user@host:path addresses. Local and private hosts are refused so the
// service cannot be pointed at its own network, and option-looking or
// control-character input is refused before it reaches the git CLI.
func ValidateRepoURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("repository URL cannot be empty")
	}
	if strings.HasPrefix(raw, "-") {
		return fmt.Errorf("repository URL must not start with '-'")
	}
	if strings.ContainsAny(raw, " \t\r\n\x00`$;|&") {
		return fmt.Errorf("invalid characters in repository URL")
	}

	var host string
	if m := scpLike.FindStringSubmatch(raw); m != nil {
		host = m[1]
	} else {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid URL format: %w", err)
		}
		switch u.Scheme {
		case "http", "https", "ssh", "git":
		default:
			return fmt.Errorf("invalid URL scheme: %q (allowed: http, https, ssh, git)", u.Scheme)
		}
		if strings.Trim(u.Path, "/") == "" {
			return fmt.Errorf("repository path is missing")
		}
		host = u.Hostname()
	}
	return validateHost(host)
}

func validateHost(host string) error {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return fmt.Errorf("repository host is missing")
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("localhost/internal IPs are not allowed")
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsUnspecified() {
			return fmt.Errorf("localhost/internal IPs are not allowed")
		}
		if ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return fmt.Errorf("private IP ranges are not allowed")
		}
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

var runIDPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

// ValidateRunID validates run ID format
func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("run ID cannot be empty")
	}
	if !runIDPattern.MatchString(id) {
		return fmt.Errorf("invalid run ID format")
	}
	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
