package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
)

// ProviderGoogle is the provider name stored on Google-linked accounts.
const ProviderGoogle = "google"

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	maxProfileBytes   = 1 << 20
)

// GoogleVerifier exchanges a Google authorization code for the signed-in
// user's OpenID profile.
type GoogleVerifier struct {
	config      *oauth2.Config
	userInfoURL string
}

var _ ProfileVerifier = (*GoogleVerifier)(nil)

// NewGoogleVerifier creates a verifier for the given OAuth client.
func NewGoogleVerifier(clientID, clientSecret, redirectURL string) *GoogleVerifier {
	return newGoogleVerifier(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     endpoints.Google,
		Scopes:       []string{"openid", "email", "profile"},
	}, googleUserInfoURL)
}

func newGoogleVerifier(config *oauth2.Config, userInfoURL string) *GoogleVerifier {
	return &GoogleVerifier{config: config, userInfoURL: userInfoURL}
}

type googleProfile struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Verify redeems code and reads the profile it grants access to.
func (v *GoogleVerifier) Verify(ctx context.Context, provider, code string) (Claim, error) {
	if provider != ProviderGoogle {
		return Claim{}, apperror.NewValidation("provider", fmt.Sprintf("unsupported provider %q", provider))
	}
	if code == "" {
		return Claim{}, apperror.NewValidation("code", "required")
	}

	token, err := v.config.Exchange(ctx, code)
	if err != nil {
		return Claim{}, fmt.Errorf("failed to exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userInfoURL, nil)
	if err != nil {
		return Claim{}, fmt.Errorf("failed to build profile request: %w", err)
	}
	resp, err := v.config.Client(ctx, token).Do(req)
	if err != nil {
		return Claim{}, fmt.Errorf("failed to fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Claim{}, fmt.Errorf("failed to fetch profile: status %d", resp.StatusCode)
	}

	var profile googleProfile
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBytes)).Decode(&profile); err != nil {
		return Claim{}, fmt.Errorf("failed to decode profile: %w", err)
	}

	slog.Debug("Google profile received", "sub", profile.Sub, "email_verified", profile.EmailVerified)
	return Claim{
		Email:         profile.Email,
		DisplayName:   profile.Name,
		AvatarURL:     profile.Picture,
		Provider:      ProviderGoogle,
		ProviderID:    profile.Sub,
		EmailVerified: profile.EmailVerified,
	}, nil
}
