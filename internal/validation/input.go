package validation

import (
	"fmt"
	"net"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Input length limits to prevent resource exhaustion
const (
	MaxEmailLength = 320 // RFC 5321: 64 chars (local) + 1 (@) + 255 (domain) = 320
	MaxHostLength  = 253
	MaxPathLength  = 1024
	MaxQueryLength = 1 << 20
)

// ValidateEmail checks that an email address is present, within length
// limits and parseable.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("email is required")
	}
	if length := utf8.RuneCountInString(email); length > MaxEmailLength {
		return fmt.Errorf("email exceeds maximum length of %d characters (got %d)", MaxEmailLength, length)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if addr.Address != email {
		return fmt.Errorf("invalid email format: use a bare address like user@example.com")
	}
	return nil
}

// ValidateHost checks a bare host name or IP address. Schemes, ports and
// paths belong in their own settings.
func ValidateHost(host string) error {
	if host == "" {
		return fmt.Errorf("host is required")
	}
	if len(host) > MaxHostLength {
		return fmt.Errorf("host exceeds maximum length of %d characters", MaxHostLength)
	}
	if strings.Contains(host, "://") {
		return fmt.Errorf("host %q must not include a scheme; use --tls and --port instead", host)
	}
	if strings.ContainsAny(host, "/?# ") {
		return fmt.Errorf("host %q must not include a path or spaces", host)
	}
	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		return nil
	}
	if strings.Contains(host, ":") {
		return fmt.Errorf("host %q must not include a port; use --port instead", host)
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return fmt.Errorf("invalid host %q", host)
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return fmt.Errorf("invalid host %q", host)
		}
		for _, r := range label {
			if !(r == '-' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
				return fmt.Errorf("invalid host %q: unexpected character %q", host, r)
			}
		}
	}
	return nil
}

// ValidatePort checks a TCP port number.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535 (got %d)", port)
	}
	return nil
}

// ValidatePath checks a Precog storage path given on the command line.
// Empty means the account root and is allowed.
func ValidatePath(path string) error {
	if len(path) > MaxPathLength {
		return fmt.Errorf("path exceeds maximum length of %d characters", MaxPathLength)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("path %q must not contain relative segments", path)
		}
	}
	if strings.ContainsAny(path, "?#") {
		return fmt.Errorf("path %q must not contain '?' or '#'", path)
	}
	return nil
}

// ValidateQuery checks that a Quirrel query is non-blank and not oversized.
func ValidateQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if len(q) > MaxQueryLength {
		return fmt.Errorf("query exceeds maximum size of %d bytes (got %d)", MaxQueryLength, len(q))
	}
	return nil
}

// ParsePositiveInt parses a string as a positive integer.
func ParsePositiveInt(s string, fieldName string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", fieldName, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", fieldName)
	}
	return n, nil
}
