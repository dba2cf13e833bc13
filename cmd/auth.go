package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/wardrobe/internal/identity"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/server"
	"github.com/desertthunder/wardrobe/internal/shared"
	"github.com/urfave/cli/v3"
)

const loginTimeout = 5 * time.Minute

// AuthLogin runs the LINE Login authorization code flow through a temporary callback server.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if !r.config.Line.Enabled() {
		return fmt.Errorf("%w: set line.channel_id and line.channel_secret (or WARDROBE_LINE_CHANNEL_ID and WARDROBE_LINE_CHANNEL_SECRET)", shared.ErrMissingCredentials)
	}

	redirect, err := url.Parse(r.config.Line.RedirectURI)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: line.redirect_uri %q must be an absolute URL", shared.ErrInvalidConfig, r.config.Line.RedirectURI)
	}

	store, err := r.sessionStore()
	if err != nil {
		return err
	}
	provider := identity.NewLineProvider(r.config.Line, store, r.logger)

	state := shared.GenerateID()
	handler := server.NewOAuthHandler(provider.Exchange, state, redirect.Path)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(handler)

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = loginTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	served := make(chan error, 1)
	go func() {
		served <- server.ListenAndServe(ctx, redirect.Host, router, r.logger)
	}()

	authURL := provider.AuthURL(state)
	open := shared.Opener(shared.OpenBrowser)
	if cmd.Bool("no-browser") {
		open = nil
	}
	if err := shared.PresentURL(r.output, authURL, open, r.logger); err != nil {
		return err
	}

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-served:
		if err == nil {
			err = ctx.Err()
		}
		return fmt.Errorf("callback server stopped: %w", err)
	case <-ctx.Done():
		<-served
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		return fmt.Errorf("%w: no login callback within %s", shared.ErrTimeout, timeout)
	}

	cancel()
	<-served

	if err := result.Error(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInitFailed, err)
	}
	return r.writePlain("✓ Logged in as %s (%s)\n", result.Session.Name(), result.Session.UserID)
}

// AuthStatus prints the stored session. With --check the session is resolved through the provider.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store, err := r.sessionStore()
	if err != nil {
		return err
	}

	session, err := store.Get()
	if errors.Is(err, models.ErrNoSession) {
		return r.writePlain("✗ Not logged in\n")
	}
	if err != nil {
		return err
	}

	r.writePlain("User: %s\n", session.UserID)
	if session.DisplayName != "" {
		r.writePlain("Name: %s\n", session.DisplayName)
	}

	provider := identity.NewProvider(r.config.Line, store, r.logger)
	switch provider.(type) {
	case *identity.LineProvider:
		r.writePlain("Provider: LINE\n")
	default:
		r.writePlain("Provider: stored session\n")
	}

	if !cmd.Bool("check") {
		return nil
	}

	resolved, err := provider.Initialize(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Session valid for %s\n", resolved.Name())
}

// AuthLogout clears the stored session and provider token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	store, err := r.sessionStore()
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthUse stores a session for a user id directly.
func (r *Runner) AuthUse(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.StringArg("user-id")
	if userID == "" {
		return fmt.Errorf("%w: user-id", shared.ErrMissingArgument)
	}

	store, err := r.sessionStore()
	if err != nil {
		return err
	}

	session := models.Session{UserID: userID, DisplayName: cmd.StringArg("name")}
	if err := store.Clear(); err != nil {
		return err
	}
	if err := store.Set(session); err != nil {
		return err
	}
	return r.writePlain("✓ Using %s\n", session.Name())
}
