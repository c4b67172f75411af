// Package oauth exchanges authorization codes with external providers and
// normalizes the profile they report.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/aruna-labs/identra/internal/identity/usecase"
	"github.com/aruna-labs/identra/internal/pkg/config"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
)

const maxProfileBody = 1 << 20

type provider struct {
	cfg         *oauth2.Config
	userinfoURL string
	parse       func([]byte) (*usecase.OAuthUser, error)
}

type Client struct {
	providers map[string]provider
	ins       instrument.Instrumentation
}

// NewClient reads per-provider credentials from config keys under
// "oauth.<provider>".
func NewClient(cfg config.Config, ins instrument.Instrumentation) *Client {
	return &Client{
		ins: ins,
		providers: map[string]provider{
			"google": {
				cfg: &oauth2.Config{
					ClientID:     cfg.GetString("oauth.google.client_id"),
					ClientSecret: cfg.GetString("oauth.google.client_secret"),
					RedirectURL:  cfg.GetString("oauth.google.redirect_url"),
					Scopes:       []string{"openid", "email", "profile"},
					Endpoint:     google.Endpoint,
				},
				userinfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
				parse:       parseGoogleProfile,
			},
			"github": {
				cfg: &oauth2.Config{
					ClientID:     cfg.GetString("oauth.github.client_id"),
					ClientSecret: cfg.GetString("oauth.github.client_secret"),
					RedirectURL:  cfg.GetString("oauth.github.redirect_url"),
					Scopes:       []string{"read:user", "user:email"},
					Endpoint:     github.Endpoint,
				},
				userinfoURL: "https://api.github.com/user",
				parse:       parseGitHubProfile,
			},
		},
	}
}

func (c *Client) Exchange(ctx context.Context, name, code string) (*usecase.OAuthUser, error) {
	ctx, span := c.ins.Tracer("identity.outbound.oauth").Start(ctx, "Exchange")
	defer span.End()

	p, ok := c.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown oauth provider %q", name)
	}

	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	body, err := c.fetchProfile(ctx, p, token)
	if err != nil {
		return nil, err
	}

	user, err := p.parse(body)
	if err != nil {
		return nil, err
	}
	if user.Email == "" {
		return nil, fmt.Errorf("provider %q did not report an email address", name)
	}
	return user, nil
}

func (c *Client) fetchProfile(ctx context.Context, p provider, token *oauth2.Token) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.cfg.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
}

func parseGoogleProfile(body []byte) (*usecase.OAuthUser, error) {
	var p struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("parse google profile: %w", err)
	}
	return &usecase.OAuthUser{Email: p.Email, FullName: p.Name, AvatarURL: p.Picture}, nil
}

func parseGitHubProfile(body []byte) (*usecase.OAuthUser, error) {
	var p struct {
		Email     string `json:"email"`
		Name      string `json:"name"`
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("parse github profile: %w", err)
	}
	name := p.Name
	if name == "" {
		name = p.Login
	}
	return &usecase.OAuthUser{Email: p.Email, FullName: name, AvatarURL: p.AvatarURL}, nil
}
