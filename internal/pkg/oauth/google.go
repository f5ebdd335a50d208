package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var (
	ErrEmailNotVerified = errors.New("google account email is not verified")
	ErrMissingEmail     = errors.New("google account has no email")
)

// GoogleService drives the authorization code flow for Google sign-in.
type GoogleService interface {
	// GenerateState returns an unguessable value for the state parameter.
	GenerateState() (string, error)
	// RedirectURL is the consent page the browser is sent to.
	RedirectURL(state string) string
	// Authenticate exchanges the callback code and returns the verified profile.
	Authenticate(ctx context.Context, code string) (Profile, error)
}

// Profile is the subset of Google userinfo the dashboard stores.
type Profile struct {
	GoogleID      string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type Option func(*googleService)

// WithEndpoint replaces Google's token and userinfo endpoints.
func WithEndpoint(endpoint oauth2.Endpoint, userInfoURL string) Option {
	return func(g *googleService) {
		g.config.Endpoint = endpoint
		g.userInfoURL = userInfoURL
	}
}

type googleService struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleService(clientID, clientSecret, redirectURL string, scopes []string, opts ...Option) GoogleService {
	g := &googleService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *googleService) GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (g *googleService) RedirectURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *googleService) Authenticate(ctx context.Context, code string) (Profile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := g.config.Client(ctx, token).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if profile.Email == "" {
		return Profile{}, ErrMissingEmail
	}
	if !profile.VerifiedEmail {
		return Profile{}, ErrEmailNotVerified
	}
	return profile, nil
}
