package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/desertthunder/wardrobe/internal/identity"
	"github.com/desertthunder/wardrobe/internal/server"
	"github.com/desertthunder/wardrobe/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web pages until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.webServer()
	if err != nil {
		return err
	}

	listen := r.config.Server
	if h := cmd.String("host"); h != "" {
		listen.Host = h
	}
	if p := cmd.Int("port"); p > 0 {
		listen.Port = int(p)
	}
	addr := listen.Addr()

	r.writePlain("Serving on http://%s\n", addr)
	return server.ListenAndServe(ctx, addr, srv.Handler(), r.logger)
}

func (r *Runner) webServer() (*web.Server, error) {
	provider, err := r.provider()
	if err != nil {
		return nil, err
	}
	client, err := r.wardrobeClient()
	if err != nil {
		return nil, err
	}
	engine, err := r.uploadEngine()
	if err != nil {
		return nil, err
	}

	opts := web.Options{
		Provider: provider,
		Client:   client,
		Engine:   engine,
		Logger:   r.logger,
	}

	if r.config.Line.Enabled() {
		store, err := r.sessionStore()
		if err != nil {
			return nil, err
		}
		redirect, err := url.Parse(r.config.Line.RedirectURI)
		if err != nil {
			return nil, fmt.Errorf("invalid line.redirect_uri: %w", err)
		}
		opts.Login = identity.NewLineProvider(r.config.Line, store, r.logger)
		opts.CallbackPath = redirect.Path
	}

	return web.New(opts)
}
