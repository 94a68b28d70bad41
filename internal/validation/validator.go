package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Common validation errors
var (
	ErrInvalidTeamName    = errors.New("invalid team name")
	ErrInvalidEndpoint    = errors.New("invalid agent endpoint")
	ErrInvalidUUID        = errors.New("invalid UUID format")
	ErrStringTooLong      = errors.New("string exceeds maximum length")
	ErrStringTooShort     = errors.New("string below minimum length")
	ErrContainsXSSPattern = errors.New("input contains suspicious markup")
)

// Team names end up on the public dashboard verbatim, so they are
// length-bounded and screened for markup before anything stores them.
const (
	TeamNameMinLen = 1
	TeamNameMaxLen = 64
	EndpointMaxLen = 512
)

var (
	uuidRegex = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

	// Markup fragments that must never reach the dashboard
	xssPatterns = []string{
		"<script", "</script", "javascript:", "onerror=", "onload=",
		"<iframe", "</iframe", "<object", "</object", "eval(",
	}
)

// SanitizeString strips null bytes and surrounding whitespace.
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}

// CheckXSS checks for common markup injection patterns.
func CheckXSS(input string) error {
	lower := strings.ToLower(input)
	for _, pattern := range xssPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("%w: contains '%s'", ErrContainsXSSPattern, pattern)
		}
	}
	return nil
}

// ValidateStringLength validates string length in bytes.
func ValidateStringLength(value string, minLen, maxLen int, fieldName string) error {
	if len(value) < minLen {
		return fmt.Errorf("%w: %s must be at least %d characters", ErrStringTooShort, fieldName, minLen)
	}
	if len(value) > maxLen {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrStringTooLong, fieldName, maxLen)
	}
	return nil
}

// ValidateTeamName sanitizes a registration team name and returns the
// canonical form that should be stored.
func ValidateTeamName(name string) (string, error) {
	sanitized := SanitizeString(name)
	if err := ValidateStringLength(sanitized, TeamNameMinLen, TeamNameMaxLen, "team name"); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidTeamName, err)
	}
	if err := CheckXSS(sanitized); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidTeamName, err)
	}
	return sanitized, nil
}

// ValidateEndpoint checks that an agent endpoint is an absolute http(s)
// URL the match runner can POST to.
func ValidateEndpoint(raw string) (string, error) {
	sanitized := SanitizeString(raw)
	if sanitized == "" {
		return "", fmt.Errorf("%w: endpoint is required", ErrInvalidEndpoint)
	}
	if len(sanitized) > EndpointMaxLen {
		return "", fmt.Errorf("%w: endpoint must be at most %d characters", ErrInvalidEndpoint, EndpointMaxLen)
	}
	u, err := url.Parse(sanitized)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidEndpoint)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: endpoint has no host", ErrInvalidEndpoint)
	}
	if port := u.Port(); port != "" {
		if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
			return "", fmt.Errorf("%w: bad port %q", ErrInvalidEndpoint, port)
		}
	}
	return sanitized, nil
}

// ValidateUUID validates UUID format.
func ValidateUUID(id string) error {
	if id == "" {
		return errors.New("UUID is required")
	}
	if !uuidRegex.MatchString(id) {
		return ErrInvalidUUID
	}
	return nil
}
