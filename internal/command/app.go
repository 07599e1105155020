// Package command defines the authfort command-line application.
//
// It uses urfave/cli/v2 for command parsing. Every command builds its
// runtime from the environment (see config.Load), so flags only cover
// per-invocation choices.
package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	"authfort-cli/internal/authapi"
	"authfort-cli/internal/config"
	"authfort-cli/internal/domain"
	"authfort-cli/internal/observability"
	"authfort-cli/internal/service"
	"authfort-cli/internal/ui"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// App creates the CLI application reading from in and writing to out
func App(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:    "authfort",
		Usage:   "AuthFort session and email verification client",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Reader:  in,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output format: text, json, yaml",
				Value:   OutputText,
			},
		},
		Commands: []*cli.Command{
			LoginCommand(),
			LogoutCommand(),
			StatusCommand(),
			ProfileCommand(),
			VerifyCommand(),
			AgentCommand(),
		},
		// Exit codes are handled by main
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// runtime is everything a command needs, built from configuration
type runtime struct {
	cfg         *config.Config
	tokens      domain.TokenRepository
	closeTokens func() error
	client      *authapi.Client
	console     *ui.Console
	store       *service.SessionStore
}

// setup loads configuration and wires the session layer for command name
func setup(c *cli.Context, name string) (context.Context, *runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), 2)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogFormat)
	ctx := observability.WithCommand(c.Context, name)
	log := observability.FromContext(ctx)

	var opts []authapi.Option
	if cfg.ContractCheck != config.ContractOff {
		contract, err := authapi.LoadContract(cfg.ContractCheck == config.ContractStrict)
		if err != nil {
			return nil, nil, fmt.Errorf("load api contract: %w", err)
		}
		opts = append(opts, authapi.WithContract(contract))
	}

	client, err := authapi.NewClient(cfg.BackendURL, cfg.HTTPTimeout, opts...)
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), 2)
	}

	tokens, closeTokens, err := config.NewTokenRepository(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open token store: %w", err)
	}

	console := ui.NewConsole(c.App.Writer, log)
	store := service.NewSessionStore(ctx, tokens, client, console)

	log.Debug("runtime ready",
		slog.String("backend", client.BaseURL()),
		slog.String("token_store", cfg.TokenStore),
		slog.String("contract_check", cfg.ContractCheck))

	return ctx, &runtime{
		cfg:         cfg,
		tokens:      tokens,
		closeTokens: closeTokens,
		client:      client,
		console:     console,
		store:       store,
	}, nil
}

func (rt *runtime) close() {
	if err := rt.closeTokens(); err != nil {
		slog.Warn("failed to close token store", slog.String("error", err.Error()))
	}
}

// withRuntime wraps a command action with setup and teardown
func withRuntime(name string, action func(ctx context.Context, c *cli.Context, rt *runtime) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		ctx, rt, err := setup(c, name)
		if err != nil {
			return err
		}
		defer rt.close()
		return action(ctx, c, rt)
	}
}

// failed signals a failure the user has already been told about
func failed() error {
	return cli.Exit("", 1)
}
