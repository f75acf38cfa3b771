package auth

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

// FacebookConfig holds the Facebook OAuth application credentials.
type FacebookConfig struct {
	ClientID     string   `env:"FACEBOOK_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"FACEBOOK_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"FACEBOOK_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"FACEBOOK_OAUTH_SCOPES" envSeparator:"," envDefault:"email,public_profile"`
}

// Enabled reports whether the provider is configured.
func (c FacebookConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type facebookProvider struct {
	oauth2Config *oauth2.Config
	graphURL     string
}

// NewFacebookProvider creates the Facebook identity provider.
func NewFacebookProvider(cfg FacebookConfig) Provider {
	return &facebookProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     facebook.Endpoint,
		},
		graphURL: "https://graph.facebook.com/v19.0/me",
	}
}

func (p *facebookProvider) Name() string { return ProviderFacebook }

func (p *facebookProvider) AuthURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

type facebookUserInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func (p *facebookProvider) ResolveProfile(ctx context.Context, code string) (*Profile, error) {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange facebook code: %w", err)
	}

	infoURL := p.graphURL + "?" + url.Values{
		"fields": {"name,email,picture"},
	}.Encode()

	info, err := fetchJSON[facebookUserInfo](ctx, infoURL, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch facebook profile: %w", err)
	}

	profile := &Profile{
		Provider:    ProviderFacebook,
		DisplayName: info.Name,
	}
	if info.Email != "" {
		profile.Emails = []string{info.Email}
	}
	if info.Picture.Data.URL != "" {
		profile.Photos = []string{info.Picture.Data.URL}
	}
	return profile, nil
}
