package arangorest

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthScheme identifies how requests are authenticated.
type AuthScheme string

const (
	AuthBasic  AuthScheme = "basic"
	AuthBearer AuthScheme = "bearer"
)

// authenticator holds the Authorization header value chosen in New.
// It is never renegotiated.
type authenticator struct {
	scheme AuthScheme
	header string
}

// newAuthenticator picks exactly one scheme: an explicit bearer token,
// then a token minted from a JWT secret, then Basic credentials.
func newAuthenticator(config *clientConfig) (*authenticator, error) {
	switch {
	case config.token != "":
		return &authenticator{scheme: AuthBearer, header: "bearer " + config.token}, nil
	case config.jwtSecret != "":
		token, err := mintSuperuserToken(config.jwtSecret, time.Now())
		if err != nil {
			return nil, &ConfigError{Field: "jwt secret", Message: "cannot sign token", Err: err}
		}
		return &authenticator{scheme: AuthBearer, header: "bearer " + token}, nil
	case config.username != "":
		creds := config.username + ":" + config.password
		return &authenticator{scheme: AuthBasic, header: "Basic " + encodeBase64([]byte(creds))}, nil
	default:
		return nil, &ConfigError{Message: ErrMissingCredentials.Error(), Err: ErrMissingCredentials}
	}
}

// mintSuperuserToken signs the HS256 token the server accepts from holders
// of its JWT secret.
func mintSuperuserToken(secret string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":       "arangodb",
		"server_id": "arangorest-" + uuid.NewString(),
		"iat":       now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}
