package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPI = "https://api.github.com"

// GitHubProfile is what the login flow needs from GitHub: who the account
// is and the verified primary email that maps it onto a local user.
type GitHubProfile struct {
	ID    int64
	Login string
	Name  string
	Email string
}

// ErrNoVerifiedEmail means the GitHub account has no verified primary email,
// so it cannot be matched to or create a local user.
var ErrNoVerifiedEmail = errors.New("auth: GitHub account has no verified primary email")

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code
// flow. The code-for-token exchange happens server-to-server with the client
// secret; the GitHub access token never reaches the browser.
type GitHubProvider struct {
	config  *oauth2.Config
	apiBase string
}

// NewGitHubProvider creates a GitHubProvider. callbackURL must match the
// "Authorization callback URL" configured on the GitHub OAuth App.
//
// Scopes:
//   - "read:user"  public profile (id, login, name)
//   - "user:email" the address list, including unpublished ones
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBase: githubAPI,
	}
}

// AuthURL returns the GitHub authorization URL. state is echoed back on the
// callback and compared with the state cookie to stop login CSRF.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the caller's GitHub profile.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubProfile, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// The returned client adds "Authorization: Bearer <token>" to every call.
	return p.fetchProfile(ctx, p.config.Client(ctx, oauthToken))
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// fetchProfile reads /user and /user/emails. The email on /user is the
// public one and may be empty or unverified, so the primary verified
// address from /user/emails is used instead.
func (p *GitHubProvider) fetchProfile(ctx context.Context, client *http.Client) (*GitHubProfile, error) {
	var u githubUser
	if err := getJSON(ctx, client, p.apiBase+"/user", &u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, errors.New("auth: GitHub returned an invalid user (ID = 0)")
	}

	var emails []githubEmail
	if err := getJSON(ctx, client, p.apiBase+"/user/emails", &emails); err != nil {
		return nil, err
	}

	profile := &GitHubProfile{ID: u.ID, Login: u.Login, Name: u.Name}
	for _, e := range emails {
		if e.Primary && e.Verified {
			profile.Email = e.Email
			break
		}
	}
	if profile.Email == "" {
		return nil, ErrNoVerifiedEmail
	}
	if profile.Name == "" {
		profile.Name = profile.Login
	}
	return profile, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("auth: building GitHub request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: calling GitHub %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: GitHub %s returned status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("auth: decoding GitHub %s response: %w", url, err)
	}
	return nil
}
