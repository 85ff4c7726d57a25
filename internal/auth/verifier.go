package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier turns a bearer token into a Principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// Claims is the token payload: the numeric user id and the role name.
type Claims struct {
	UserID int64  `json:"usuarioID"`
	Role   string `json:"userRole"`
	jwt.RegisteredClaims
}

type jwtVerifier struct {
	keyFunc jwt.Keyfunc
	methods []string
}

var (
	hmacAlgorithms = []string{"HS256", "HS384", "HS512"}
	jwksAlgorithms = []string{"RS256", "ES256"}
)

// allowedMethods returns requested, or fallback when none are requested.
// Every requested algorithm must belong to the key family.
func allowedMethods(requested []string, family func(jwt.SigningMethod) bool, fallback []string) ([]string, error) {
	if len(requested) == 0 {
		return fallback, nil
	}
	for _, alg := range requested {
		m := jwt.GetSigningMethod(alg)
		if m == nil || !family(m) {
			return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
		}
	}
	return requested, nil
}

func isHMAC(m jwt.SigningMethod) bool {
	_, ok := m.(*jwt.SigningMethodHMAC)
	return ok
}

func isAsymmetric(m jwt.SigningMethod) bool {
	switch m.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS, *jwt.SigningMethodECDSA, *jwt.SigningMethodEd25519:
		return true
	}
	return false
}

// NewHMACVerifier verifies tokens signed with secret. algorithms narrows the
// accepted HS* methods; empty means HS256/384/512.
func NewHMACVerifier(secret []byte, algorithms ...string) (Verifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret cannot be empty")
	}
	methods, err := allowedMethods(algorithms, isHMAC, hmacAlgorithms)
	if err != nil {
		return nil, err
	}
	return &jwtVerifier{
		keyFunc: func(*jwt.Token) (any, error) { return secret, nil },
		methods: methods,
	}, nil
}

// NewJWKSVerifier verifies tokens against keys fetched from jwksURL. algorithms
// lists the accepted asymmetric methods; empty means RS256 and ES256.
// Keys are cached and refreshed by keyfunc in the background until ctx ends.
func NewJWKSVerifier(ctx context.Context, jwksURL string, algorithms ...string) (Verifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}
	methods, err := allowedMethods(algorithms, isAsymmetric, jwksAlgorithms)
	if err != nil {
		return nil, err
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}
	return &jwtVerifier{
		keyFunc: jwks.Keyfunc,
		methods: methods,
	}, nil
}

// Verify parses token, checks signature, algorithm and expiry, and returns the principal.
func (v *jwtVerifier) Verify(_ context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrUnauthorized
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.keyFunc, jwt.WithValidMethods(v.methods))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrTokenExpired
		}
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.UserID <= 0 {
		return Principal{}, ErrUnauthorized
	}

	role, err := ParseRole(claims.Role)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return Principal{UserID: claims.UserID, Role: role}, nil
}
