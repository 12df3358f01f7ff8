package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingBearer = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
)

type Claims struct {
	Subject string
	Token   string
}

type Authenticator interface {
	Authenticate(r *http.Request) (Claims, error)
}

// TokenAuthenticator accepts a single static bearer token. An empty token
// disables authentication, for local development and tests.
type TokenAuthenticator struct {
	Token string
}

func (a *TokenAuthenticator) Authenticate(r *http.Request) (Claims, error) {
	if a.Token == "" {
		return Claims{Subject: "anonymous"}, nil
	}

	bearer, err := extractBearer(r)
	if err != nil {
		return Claims{}, err
	}
	if subtle.ConstantTimeCompare([]byte(bearer), []byte(a.Token)) != 1 {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Subject: "operator", Token: bearer}, nil
}

func extractBearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingBearer
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
