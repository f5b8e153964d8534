package api

import (
	"fmt"
	"strings"

	"workhub-api/domain"
)

var (
	errMissingAuthorization = fmt.Errorf("%w: missing authorization header", domain.ErrUnauthorized)
	errBadAuthorization     = fmt.Errorf("%w: bad auth header", domain.ErrUnauthorized)
)

const bearerPrefix = "Bearer "

// bearerToken returns the compact JWT carried in an Authorization header
// value. Anything other than three dot-separated segments is rejected before
// signature verification.
func bearerToken(raw string) (string, error) {
	trimmed := strings.Trim(raw, " ")
	if trimmed == "" {
		return "", errMissingAuthorization
	}
	if len(trimmed) <= len(bearerPrefix) || !strings.HasPrefix(trimmed, bearerPrefix) {
		return "", errBadAuthorization
	}
	token := trimmed[len(bearerPrefix):]
	if strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}
