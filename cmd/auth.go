package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/local2stream/internal/server"
	"github.com/desertthunder/local2stream/internal/services"
	"github.com/desertthunder/local2stream/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// SetupSpotify runs the OAuth2 authorization code flow and stores the tokens in the config file.
func (r *Runner) SetupSpotify(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: credentials.spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	prompt := func(authURL string) {
		r.writePlain("Open this URL in your browser to authorize local2stream:\n\n%s\n\n", authURL)
	}

	token, err := server.Authorize(ctx, services.SpotifyOAuthConfig(creds), prompt, r.logger)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}
	r.writePlain("✓ Spotify authorized\n")
	if r.configPath != "" {
		r.writePlain("Tokens saved to %s\n", r.configPath)
	}
	return nil
}

// saveTokens updates the in-memory config and, when a config file is in use, persists it.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrInvalidConfig)
	}
	if token == nil {
		return fmt.Errorf("%w: token cannot be nil", shared.ErrInvalidArgument)
	}

	spotify := &r.config.Credentials.Spotify
	spotify.AccessToken = token.AccessToken
	spotify.TokenExpiry = token.Expiry
	if token.RefreshToken != "" {
		spotify.RefreshToken = token.RefreshToken
	}

	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return err
	}
	r.logger.Info("saved spotify tokens", "path", r.configPath)
	return nil
}
