package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"workhub-api/domain"
)

const defaultTokenTTL = 7 * 24 * time.Hour

var (
	errInvalidToken = fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	errTokenExpired = fmt.Errorf("%w: token expired", domain.ErrUnauthorized)
	errMissingID    = fmt.Errorf("%w: token payload missing id field", domain.ErrUnauthorized)
)

// Auth issues and verifies HS256 bearer tokens signed with a process-wide
// secret. The user id travels in the "id" claim.
type Auth struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewAuth creates an Auth. A non-positive ttl selects the 7 day default.
func NewAuth(secret string, ttl time.Duration) *Auth {
	if secret == "" {
		panic("api.NewAuth: empty signing secret")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Auth{
		secret: []byte(secret),
		ttl:    ttl,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		now:    time.Now,
	}
}

// Issue signs a token for userID.
func (a *Auth) Issue(userID string) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"id":  userID,
		"iat": now.Unix(),
		"exp": now.Add(a.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// UserIDFromAuthHeader extracts the user identifier from the Authorization header.
func (a *Auth) UserIDFromAuthHeader(h string) (string, error) {
	token, err := bearerToken(h)
	if err != nil {
		return "", err
	}
	return a.UserIDFromToken(token)
}

// UserIDFromToken verifies a raw token and returns its user id.
func (a *Auth) UserIDFromToken(token string) (string, error) {
	parsed, err := a.parser.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return "", errTokenExpired
		}
		return "", errInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidToken
	}
	if !claims.VerifyExpiresAt(a.now().Unix(), true) {
		return "", errTokenExpired
	}
	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return "", errMissingID
	}
	return id, nil
}
