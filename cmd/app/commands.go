package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cryptodash/configs"
	"cryptodash/internal/delivery/console"
	"cryptodash/internal/domain"
	"cryptodash/internal/infra"
	"cryptodash/internal/observability"
	"cryptodash/internal/service"
)

// cli carries the app between cobra hooks and commands
type cli struct {
	app *app
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "cryptodash",
		Short:         "Personalized crypto dashboard client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configs.Load()
			if err != nil {
				return err
			}
			observability.Setup(cfg.Log)
			c.app, err = newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}

	root.AddCommand(
		c.signupCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.meCmd(),
		c.sessionCmd(),
		c.onboardCmd(),
		c.dashboardCmd(),
		c.refreshCmd(),
		c.voteCmd(),
		c.themeCmd(),
		c.serveCmd(),
	)
	return root
}

func (c *cli) signupCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and start a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			route, err := c.app.auth.Signup(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]domain.Route{"route": route})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print where to go next",
		RunE: func(cmd *cobra.Command, args []string) error {
			route, err := c.app.auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]domain.Route{"route": route})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.auth.Logout(cmd.Context())
		},
	}
}

func (c *cli) meCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the current user and the route for the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			route, me, err := c.app.auth.Resume(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"route": route, "me": me})
		},
	}
}

func (c *cli) sessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Describe the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, c.app.session.Describe())
		},
	}
}

func (c *cli) onboardCmd() *cobra.Command {
	var profile domain.OnboardingProfile
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Submit onboarding answers",
		Long:  "Submit onboarding answers. Valid values are listed by --help on each flag.",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.app.onboarding.Submit(cmd.Context(), profile)
			if err != nil {
				return loginHint(err)
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringSliceVar(&profile.CryptoAssets, "asset", nil, "asset id, repeatable ("+optionValues(domain.AssetOptions)+")")
	cmd.Flags().StringVar(&profile.InvestorType, "investor", "", "investor type ("+optionValues(domain.InvestorTypeOptions)+")")
	cmd.Flags().StringSliceVar(&profile.ContentTypes, "content", nil, "content type, repeatable ("+optionValues(domain.ContentTypeOptions)+")")
	cmd.Flags().StringVar(&profile.OtherAsset, "other", "", "free-text asset resolved with coin search")
	return cmd
}

func (c *cli) dashboardCmd() *cobra.Command {
	var targets bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Load today's dashboard with votes",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.app.dashboard.Load(cmd.Context())
			if err != nil {
				return loginHint(err)
			}
			if targets {
				return printJSON(cmd, domain.VoteTargets(d))
			}
			return printJSON(cmd, c.app.dashboard.View())
		},
	}
	cmd.Flags().BoolVar(&targets, "targets", false, "list votable items instead of the dashboard")
	return cmd
}

func (c *cli) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh SECTION...",
		Short: "Regenerate sections concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sections, err := domain.ParseSections(strings.Join(args, ","))
			if err != nil {
				return err
			}
			if _, err := c.app.dashboard.Load(cmd.Context()); err != nil {
				return loginHint(err)
			}

			sched := infra.NewRefreshScheduler(c.app.dashboard, sections, c.app.session.IsAuthenticated)
			sched.RunOnce(cmd.Context())

			if !c.app.session.IsAuthenticated() {
				return loginHint(domain.ErrSessionExpired)
			}
			return printJSON(cmd, c.app.dashboard.View())
		},
	}
}

func (c *cli) voteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote SECTION ITEM up|down",
		Short: "Vote on one dashboard item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := domain.ParseSection(args[0])
			if err != nil {
				return err
			}
			value, err := domain.ParseVoteValue(args[2])
			if err != nil {
				return err
			}
			if _, err := c.app.dashboard.Load(cmd.Context()); err != nil {
				return loginHint(err)
			}

			result, err := c.app.votes.Vote(cmd.Context(), domain.VoteKey{Section: string(section), Item: args[1]}, value)
			if err != nil {
				return err
			}
			if result.Err != nil {
				return loginHint(result.Err)
			}
			return printJSON(cmd, map[string]any{"outcome": result.Outcome, "value": result.Value})
		},
	}
}

func (c *cli) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [day|night|toggle]",
		Short:     "Show or change the theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{service.ThemeDay, service.ThemeNight, "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				theme string
				err   error
			)
			switch {
			case len(args) == 0:
				theme, err = c.app.theme.Get(ctx)
			case args[0] == "toggle":
				theme, err = c.app.theme.Toggle(ctx)
			default:
				theme, err = args[0], c.app.theme.Set(ctx, args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"theme": theme})
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local console API and the auto refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			log := observability.Logger()

			if a.cfg.Refresh.Schedule != "" {
				sections, err := domain.ParseSections(a.cfg.Refresh.Sections)
				if err != nil {
					return err
				}
				sched := infra.NewRefreshScheduler(a.dashboard, sections, a.session.IsAuthenticated)
				if err := sched.Start(a.cfg.Refresh.Schedule); err != nil {
					return err
				}
				defer sched.Stop()
			}

			srv := &http.Server{
				Addr: a.cfg.Console.Addr,
				Handler: console.NewServer(console.Deps{
					Session:    a.session,
					Auth:       a.auth,
					Onboarding: a.onboarding,
					Dashboard:  a.dashboard,
					Votes:      a.votes,
					Toasts:     a.toasts,
					Theme:      a.theme,
				}).Routes(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("[OK] Console API listening", "addr", srv.Addr, "backend", a.cfg.API.BaseURL)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			log.Info("Shutting down console...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}

// loginHint turns an expired session into an actionable message
func loginHint(err error) error {
	if errors.Is(err, domain.ErrSessionExpired) {
		return fmt.Errorf("%s: run `cryptodash login`", domain.UserMessage(err, "session expired"))
	}
	return errors.New(domain.UserMessage(err, err.Error()))
}

func optionValues(opts []domain.Option) string {
	values := make([]string, 0, len(opts))
	for _, o := range opts {
		values = append(values, o.Value)
	}
	return strings.Join(values, ", ")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
