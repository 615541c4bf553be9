package github

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
)

// oauthScopes grant read access to repositories, the user profile, and
// organization membership, which is everything a mirror run touches.
var oauthScopes = []string{"repo", "user", "read:org"}

// OAuthFlow drives the GitHub authorization-code flow: build the consent URL,
// then exchange the callback code for an access token.
type OAuthFlow struct {
	cfg *oauth2.Config
}

func NewOAuthFlow(clientID, clientSecret, redirectURL string) *OAuthFlow {
	return &OAuthFlow{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       oauthScopes,
			Endpoint:     oauthgithub.Endpoint,
		},
	}
}

// Configured reports whether OAuth credentials were provided. The login
// routes return an error when they were not.
func (f *OAuthFlow) Configured() bool {
	return f.cfg.ClientID != "" && f.cfg.ClientSecret != ""
}

// AuthCodeURL returns the GitHub consent page URL carrying the opaque state
// value the callback must echo back.
func (f *OAuthFlow) AuthCodeURL(state string) string {
	return f.cfg.AuthCodeURL(state)
}

// Exchange trades the callback authorization code for an access token.
func (f *OAuthFlow) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchanging authorization code: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("token exchange returned an empty access token")
	}
	return tok.AccessToken, nil
}
