package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/epheterson/mcp-applemusic/internal/server"
	"github.com/epheterson/mcp-applemusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthInit mints a developer token from the configured credentials and caches it.
func (r *Runner) AuthInit(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	r.logger.Info("minting developer token")
	if _, err := r.auth.DeveloperToken(); err != nil {
		return fmt.Errorf("failed to mint developer token: %w", err)
	}

	status := r.auth.Status()
	r.writePlain("✓ Developer token minted\n")
	r.writePlain("Expires: %s\n", status.DeveloperTokenExpires.Format(time.RFC3339))
	if !status.UserTokenPresent {
		r.writePlain("Run 'amctl auth authorize' to grant library access\n")
	}

	return nil
}

// AuthAuthorize runs the browser-side MusicKit flow on a local HTTP server
// and saves the user token it posts back.
func (r *Runner) AuthAuthorize(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	devToken, err := r.auth.DeveloperToken()
	if err != nil {
		return fmt.Errorf("failed to mint developer token: %w", err)
	}

	port := cmd.Int("port")
	if port == 0 {
		port = r.config.Auth.Port
	}
	if port == 0 {
		port = 8765
	}

	handler := server.NewMusicKitHandler(devToken)
	router := server.NewBasicRouter()
	router.Handler(handler)

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: router}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Warn("authorization server stopped", "error", err)
		}
	}()
	defer srv.Close()

	url := fmt.Sprintf("http://%s/", addr)
	if cmd.Bool("no-browser") {
		r.writePlain("Open %s to authorize\n", url)
	} else {
		r.writePlain("Opening %s\n", url)
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
			r.writePlain("Open %s manually to authorize\n", url)
		}
	}

	timeout := time.Duration(cmd.Int("timeout")) * time.Second
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return err
		}
		if err := r.auth.SaveUserToken(result.UserToken); err != nil {
			return fmt.Errorf("failed to save user token: %w", err)
		}
		r.writePlain("✓ User token saved\n")
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: authorization timed out after %v", shared.ErrMissingToken, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AuthToken saves a user token supplied directly or extracted from a cURL
// command copied out of browser DevTools.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	token := cmd.String("token")
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	provided := 0
	for _, v := range []string{token, curlCmd, curlFile} {
		if v != "" {
			provided++
		}
	}
	if provided == 0 {
		return fmt.Errorf("%w: one of --token, --curl, or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if provided > 1 {
		return fmt.Errorf("%w: --token, --curl, and --curl-file are mutually exclusive", shared.ErrInvalidFlag)
	}

	if token == "" {
		var headers *shared.CurlHeaders
		var err error

		if curlFile != "" {
			headers, err = shared.ParseCurlFile(curlFile)
			if err != nil {
				return fmt.Errorf("failed to parse cURL file: %w", err)
			}
			r.logger.Info("parsed cURL from file", "file", curlFile)
		} else {
			headers, err = shared.ParseCurlCommand([]byte(curlCmd))
			if err != nil {
				return fmt.Errorf("failed to parse cURL command: %w", err)
			}
			r.logger.Info("parsed cURL command")
		}

		if token, err = headers.MusicUserToken(); err != nil {
			return err
		}
	}

	if err := r.auth.SaveUserToken(token); err != nil {
		return fmt.Errorf("failed to save user token: %w", err)
	}

	r.writePlain("✓ User token saved\n")
	return nil
}

// AuthStatus reports which tokens are cached without minting anything.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	status := r.auth.Status()

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Authentication Status")
	if status.DeveloperTokenValid {
		r.writePlain("Developer token: valid until %s\n", status.DeveloperTokenExpires.Format(time.RFC3339))
	} else {
		r.writePlain("Developer token: missing or expired\n")
	}
	if status.UserTokenPresent {
		r.writePlain("User token:      present (issued %s)\n", status.UserTokenIssued.Format(time.RFC3339))
	} else {
		r.writePlain("User token:      missing\n")
	}

	return nil
}

// AuthClear deletes cached tokens.
func (r *Runner) AuthClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	if err := r.auth.ClearTokens(); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}

	r.writePlain("✓ Tokens cleared\n")
	return nil
}
