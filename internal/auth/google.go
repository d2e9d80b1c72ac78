package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/knightquest/kq-api/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userinfoEndpoint = "https://openidconnect.googleapis.com/v1/userinfo"

// upstreamTimeout bounds both the code exchange and the userinfo fetch.
// Timeouts surface as terminal errors; there is no retry.
const upstreamTimeout = 10 * time.Second

// GoogleProfile is the subset of the OpenID userinfo response we consume.
type GoogleProfile struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Name       string `json:"name"`
}

// GoogleProvider performs the authorization-code exchange and userinfo fetch.
type GoogleProvider struct {
	config *oauth2.Config
	client *http.Client
}

func NewGoogleProvider(cfg *config.Config) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		client: &http.Client{Timeout: upstreamTimeout},
	}
}

// AuthCodeURL builds the consent-screen redirect URL.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades the authorization code for an access token.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()
	return p.config.Exchange(ctx, code)
}

// FetchProfile loads the user's OpenID profile with the access token.
func (p *GoogleProvider) FetchProfile(ctx context.Context, accessToken string) (*GoogleProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo fetch failed: %s", resp.Status)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileNames resolves first/last name from the profile, falling back to
// splitting the display name the way the game's account screen expects.
func ProfileNames(p *GoogleProfile) (string, string) {
	first := p.GivenName
	last := p.FamilyName
	if first == "" {
		first = "Google"
		if p.Name != "" {
			parts := splitName(p.Name)
			first = parts[0]
		}
	}
	if last == "" {
		last = "User"
		if p.Name != "" {
			if parts := splitName(p.Name); len(parts) > 1 {
				last = parts[1]
			}
		}
	}
	return first, last
}

func splitName(name string) []string {
	for i := 0; i < len(name); i++ {
		if name[i] == ' ' {
			return []string{name[:i], name[i+1:]}
		}
	}
	return []string{name}
}
