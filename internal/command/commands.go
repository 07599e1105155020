package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"authfort-cli/internal/agent"
	"authfort-cli/internal/authapi"
	"authfort-cli/internal/domain"
	"authfort-cli/internal/observability"
	"authfort-cli/internal/service"
	"authfort-cli/internal/ui"
)

// LoginCommand stores a token and loads its profile
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Store a bearer token and load the account",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "token",
				Aliases: []string{"t"},
				Usage:   "Bearer token (read from stdin when omitted)",
				EnvVars: []string{"AUTHFORT_TOKEN"},
			},
		},
		Action: withRuntime("login", func(ctx context.Context, c *cli.Context, rt *runtime) error {
			token := c.String("token")
			if token == "" {
				line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
				if err != nil && line == "" {
					return cli.Exit("no token given", 2)
				}
				token = strings.TrimSpace(line)
			}

			if err := rt.store.Login(ctx, token); err != nil {
				if errors.Is(err, domain.ErrNoToken) {
					return cli.Exit("no token given", 2)
				}
				observability.FromContext(ctx).Debug("login failed", slog.String("error", err.Error()))
				return failed()
			}

			return printSession(c, rt)
		}),
	}
}

// LogoutCommand removes the stored token
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored token",
		Action: withRuntime("logout", func(ctx context.Context, c *cli.Context, rt *runtime) error {
			if err := rt.store.Logout(ctx); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			rt.console.Success("Logged out")
			return nil
		}),
	}
}

// StatusCommand checks the stored token against the backend
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show whether the stored token is still logged in",
		Action: withRuntime("status", func(ctx context.Context, c *cli.Context, rt *runtime) error {
			err := rt.store.Start(ctx)
			if err != nil {
				observability.FromContext(ctx).Debug("status check failed", slog.String("error", err.Error()))
				var statusErr *authapi.StatusError
				switch {
				case authapi.IsUnauthorized(err):
					rt.console.Error("Stored token was rejected, run `authfort login` again")
				case !errors.As(err, &statusErr):
					rt.console.Error("Could not reach the auth backend")
					return failed()
				}
			}
			return printSession(c, rt)
		}),
	}
}

// ProfileCommand prints the account behind the stored token
func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show the account of the stored token",
		Action: withRuntime("profile", func(ctx context.Context, c *cli.Context, rt *runtime) error {
			if err := rt.store.FetchUserData(ctx, ""); err != nil {
				if errors.Is(err, domain.ErrNoToken) {
					rt.console.Error("Not logged in")
				}
				return failed()
			}

			st := rt.store.Snapshot()
			ok, err := render(c.App.Writer, c.String("output"), st.User)
			if ok || err != nil {
				return err
			}
			ui.PrintSession(rt.console, st)
			return nil
		}),
	}
}

// VerifyCommand submits the email verification code
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Verify the account email with the 6-digit code",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "code",
				Aliases: []string{"c"},
				Usage:   "Code to submit (prompts interactively when omitted)",
			},
		},
		Action: withRuntime("verify", func(ctx context.Context, c *cli.Context, rt *runtime) error {
			if err := rt.store.Start(ctx); err != nil {
				observability.FromContext(ctx).Warn("authentication check failed", slog.String("error", err.Error()))
			}

			router := ui.NewRouter(domain.RouteEmailVerify)
			router.Handle(domain.RouteHome, ui.HomeScreen(rt.console, rt.store.Snapshot))

			form := service.NewOTPForm(rt.store, rt.client, rt.console, router)
			defer form.Close()

			if router.AtHome() {
				return nil
			}

			if code := c.String("code"); code != "" {
				form.Paste(code)
				if err := form.Submit(ctx); err != nil {
					return failed()
				}
				return nil
			}

			err := ui.NewOTPPrompt(form, router, rt.console, c.App.Reader).Run(ctx)
			if errors.Is(err, ui.ErrPromptAborted) {
				return failed()
			}
			return err
		}),
	}
}

// AgentCommand runs the background session agent
func AgentCommand() *cli.Command {
	return &cli.Command{
		Name:  "agent",
		Usage: "Run the local session agent",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to AUTHFORT_AGENT_ADDR)",
			},
		},
		Action: withRuntime("agent", func(ctx context.Context, c *cli.Context, rt *runtime) error {
			addr := c.String("addr")
			if addr == "" {
				addr = rt.cfg.AgentAddr
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := agent.New(rt.store, rt.tokens, rt.client, rt.cfg.RefreshInterval)
			if err != nil {
				return fmt.Errorf("start agent: %w", err)
			}
			return a.Run(ctx, addr)
		}),
	}
}

func printSession(c *cli.Context, rt *runtime) error {
	st := rt.store.Snapshot()
	ok, err := render(c.App.Writer, c.String("output"), newSessionView(st))
	if ok || err != nil {
		return err
	}
	ui.PrintSession(rt.console, st)
	return nil
}
