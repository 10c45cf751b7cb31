// Package identity verifies third-party sign-ins and returns the
// provider's view of the user.
package identity

import (
	"context"
	"errors"
	"fmt"

	"aitutor/backend/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const ProviderGoogle = "google"

var (
	ErrMissingCredentials = errors.New("either code or access_token is required")
	ErrNotConfigured      = errors.New("google sign-in is not configured")
	ErrExchangeFailed     = errors.New("google rejected the authorization")
	// ErrForeignToken marks an access token issued to another OAuth client.
	ErrForeignToken = errors.New("access token was not issued to this application")
)

// Identity is a verified external account.
type Identity struct {
	Provider  string
	Subject   string
	Email     string
	// VerifiedEmail is Google's claim that the user owns Email.
	VerifiedEmail bool
	Name          string
	AvatarURL     string
}

// Credentials carries what the client obtained from Google: either an
// authorization code or an access token.
type Credentials struct {
	Code        string `json:"code"`
	AccessToken string `json:"access_token"`
}

type Verifier interface {
	Verify(ctx context.Context, creds Credentials) (Identity, error)
}

type GoogleVerifier struct {
	OAuth *oauth2.Config
	// UserinfoEndpoint overrides the Google API base URL; used by tests.
	UserinfoEndpoint string
}

func NewGoogleVerifier(cfg *config.Config) *GoogleVerifier {
	return &GoogleVerifier{
		OAuth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// Verify exchanges the code when present, otherwise uses the access token
// after checking that it was issued to our client, and reads the user's
// profile from the userinfo API.
func (g *GoogleVerifier) Verify(ctx context.Context, creds Credentials) (Identity, error) {
	if creds.Code == "" && creds.AccessToken == "" {
		return Identity{}, ErrMissingCredentials
	}
	if g.OAuth == nil || g.OAuth.ClientID == "" {
		return Identity{}, ErrNotConfigured
	}

	var token *oauth2.Token
	if creds.Code != "" {
		t, err := g.OAuth.Exchange(ctx, creds.Code)
		if err != nil {
			return Identity{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
		}
		token = t
	} else {
		token = &oauth2.Token{AccessToken: creds.AccessToken, TokenType: "Bearer"}
	}

	opts := []option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(token))}
	if g.UserinfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(g.UserinfoEndpoint))
	}
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("google userinfo client: %w", err)
	}

	if creds.Code == "" {
		if err := g.checkAudience(ctx, svc, creds.AccessToken); err != nil {
			return Identity{}, err
		}
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if info.Id == "" || info.Email == "" {
		return Identity{}, fmt.Errorf("%w: userinfo without id or email", ErrExchangeFailed)
	}

	return Identity{
		Provider:      ProviderGoogle,
		Subject:       info.Id,
		Email:         info.Email,
		VerifiedEmail: info.VerifiedEmail != nil && *info.VerifiedEmail,
		Name:          info.Name,
		AvatarURL:     info.Picture,
	}, nil
}

// checkAudience rejects tokens that Google issued to another client.
func (g *GoogleVerifier) checkAudience(ctx context.Context, svc *oauth2api.Service, accessToken string) error {
	info, err := svc.Tokeninfo().AccessToken(accessToken).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if info.Audience != g.OAuth.ClientID && info.IssuedTo != g.OAuth.ClientID {
		return fmt.Errorf("%w: %w", ErrExchangeFailed, ErrForeignToken)
	}
	return nil
}
