package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnauthenticated is returned for any credential that cannot be
// resolved to a user: missing, malformed, rejected by the provider, or a
// provider-side failure. The caller cannot distinguish these cases.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the resolved caller of a single request.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email,omitempty"`
}

// Verifier resolves a bearer token to an identity. Implementations are
// side-effect free; retry policy belongs to the caller.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// TokenFromHeader extracts the bearer token from an Authorization header
// value. It fails on a missing header or a malformed bearer prefix.
func TokenFromHeader(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing credential", ErrUnauthenticated)
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: malformed bearer credential", ErrUnauthenticated)
	}
	return token, nil
}

// HTTPVerifier validates tokens against an external identity provider
// over HTTP.
type HTTPVerifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPVerifier builds a verifier for the provider at baseURL.
func NewHTTPVerifier(baseURL string) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify asks the provider to resolve the token. Any transport error or
// non-200 answer is an authentication failure, not retried here.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: identity provider unreachable: %v", ErrUnauthenticated, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: identity provider rejected credential (status %d)", ErrUnauthenticated, resp.StatusCode)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return Identity{}, fmt.Errorf("%w: invalid identity provider response: %v", ErrUnauthenticated, err)
	}
	if identity.UserID == "" {
		return Identity{}, fmt.Errorf("%w: identity provider returned no user", ErrUnauthenticated)
	}

	return identity, nil
}

// StaticVerifier resolves tokens from a fixed map, for local development
// and tests.
type StaticVerifier struct {
	tokens map[string]string
}

// NewStaticVerifier builds a verifier over a token -> user id map.
func NewStaticVerifier(tokens map[string]string) *StaticVerifier {
	copied := make(map[string]string, len(tokens))
	for token, user := range tokens {
		copied[token] = user
	}
	return &StaticVerifier{tokens: copied}
}

// Verify looks the token up in the static map.
func (v *StaticVerifier) Verify(_ context.Context, token string) (Identity, error) {
	user, ok := v.tokens[token]
	if !ok {
		return Identity{}, fmt.Errorf("%w: unknown credential", ErrUnauthenticated)
	}
	return Identity{UserID: user}, nil
}
