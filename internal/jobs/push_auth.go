package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// GoogleIssuer issues the OIDC tokens attached to authenticated push requests.
const GoogleIssuer = "https://accounts.google.com"

// PushVerifier authenticates push requests before their payload is trusted.
type PushVerifier interface {
	VerifyPush(ctx context.Context, r *http.Request) error
}

// PushAuthConfig configures verification of the bearer token Pub/Sub attaches to pushes.
type PushAuthConfig struct {
	Issuer              string
	Audience            string
	ServiceAccountEmail string
}

// OIDCPushVerifier checks the push token's signature, audience and the service account it
// was minted for.
type OIDCPushVerifier struct {
	verifier *oidc.IDTokenVerifier
	email    string
}

// NewOIDCPushVerifier discovers the issuer's keys. It contacts the issuer once at start-up.
func NewOIDCPushVerifier(ctx context.Context, cfg PushAuthConfig) (*OIDCPushVerifier, error) {
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, errors.New("push auth: audience is required")
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = GoogleIssuer
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("push auth: discover issuer: %w", err)
	}
	return NewOIDCPushVerifierWithVerifier(provider.Verifier(&oidc.Config{ClientID: cfg.Audience}), cfg.ServiceAccountEmail), nil
}

// NewOIDCPushVerifierWithVerifier builds the verifier from a preconfigured token verifier.
func NewOIDCPushVerifierWithVerifier(verifier *oidc.IDTokenVerifier, serviceAccountEmail string) *OIDCPushVerifier {
	return &OIDCPushVerifier{verifier: verifier, email: strings.TrimSpace(serviceAccountEmail)}
}

func (v *OIDCPushVerifier) VerifyPush(ctx context.Context, r *http.Request) error {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return errors.New("push auth: missing bearer token")
	}

	idToken, err := v.verifier.Verify(ctx, strings.TrimSpace(token))
	if err != nil {
		return fmt.Errorf("push auth: %w", err)
	}
	if v.email == "" {
		return nil
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return fmt.Errorf("push auth: read claims: %w", err)
	}
	if !claims.EmailVerified || !strings.EqualFold(claims.Email, v.email) {
		return errors.New("push auth: unexpected service account")
	}
	return nil
}
