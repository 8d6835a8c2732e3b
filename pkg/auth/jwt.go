package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/chainsafe/crosschain-middleware/pkg/app/errors"
	apphttp "github.com/chainsafe/crosschain-middleware/pkg/app/http"
)

var (
	ErrMissingToken    = errors.New("missing bearer token")
	ErrInvalidToken    = errors.New("invalid bearer token")
	ErrMissingIdentity = errors.New("token carries no subject")
)

// JWTVerifier validates HMAC-signed bearer tokens and extracts the caller's
// wallet address from the subject claim.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier creates a verifier for tokens signed with the given secret.
// issuer is enforced when non-empty.
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Verify parses and validates tokenString and returns the subject identity.
func (v *JWTVerifier) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse(tokenString, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrMissingIdentity
	}

	return subject, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// resolved identity in the request context.
func (v *JWTVerifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(ErrMissingToken, "authentication required"))
			return
		}

		identity, err := v.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}
