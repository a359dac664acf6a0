package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"github.com/metcalfc/narr/internal/api"
	"github.com/metcalfc/narr/internal/config"
	"github.com/metcalfc/narr/internal/playback"
	"github.com/metcalfc/narr/internal/reader"
	"github.com/metcalfc/narr/internal/state"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func appVersion() string {
	if version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return version
}

func paramEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

type ReadParams struct {
	File   string `pos:"true" optional:"true" help:"File to read (.txt, .md, .epub). Reads stdin when omitted."`
	Fresh  bool   `short:"f" optional:"true" help:"Ignore the saved reading position"`
	Watch  bool   `short:"w" optional:"true" help:"Re-paginate when the file changes"`
	TOC    bool   `short:"t" optional:"true" help:"Show the table of contents at startup"`
	Lines  int    `short:"n" optional:"true" help:"Lines per page (default from config)"`
	Width  int    `short:"c" optional:"true" help:"Characters per line (default from config)"`
	Server string `short:"s" optional:"true" help:"Backend URL (default from config)"`
	Debug  bool   `short:"d" optional:"true" help:"Write debug logs"`
}

func (p *ReadParams) settings() settings {
	return settings{Server: p.Server, Debug: p.Debug, Lines: p.Lines, Width: p.Width}
}

type OpenParams struct {
	ID     string `pos:"true" required:"true" help:"Novel id, as listed by 'narr novels'"`
	Fresh  bool   `short:"f" optional:"true" help:"Ignore the saved reading position"`
	Lines  int    `short:"n" optional:"true" help:"Lines per page (default from config)"`
	Width  int    `short:"c" optional:"true" help:"Characters per line (default from config)"`
	Server string `short:"s" optional:"true" help:"Backend URL (default from config)"`
	Debug  bool   `short:"d" optional:"true" help:"Write debug logs"`
}

func (p *OpenParams) settings() settings {
	return settings{Server: p.Server, Debug: p.Debug, Lines: p.Lines, Width: p.Width}
}

type ServerParams struct {
	Server string `short:"s" optional:"true" help:"Backend URL (default from config)"`
	Debug  bool   `short:"d" optional:"true" help:"Write debug logs"`
}

type AuthParams struct {
	Email    string `pos:"true" required:"true" help:"Account email"`
	Password string `short:"p" optional:"true" help:"Password (prompted when omitted)"`
	Server   string `short:"s" optional:"true" help:"Backend URL (default from config)"`
	Debug    bool   `short:"d" optional:"true" help:"Write debug logs"`
}

// runErr carries the error of a command out of its RunFunc. execute reports
// it once the coordinator and the log file are closed.
type runErr struct {
	err error
}

func (r *runErr) fail(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}

func readCmd(ui frontend, errs *runErr) *cobra.Command {
	return boa.CmdT[ReadParams]{
		Use:   "read",
		Short: "Read a local file or piped text",
		Long: `Read a local file or piped text page by page.

Supported formats: ` + strings.Join(reader.SupportedFormats(), ", ") + `. Anything else is read as plain text.

Examples:
  narr read book.epub
  narr read --watch notes.md
  cat file.txt | narr read`,
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *ReadParams, cmd *cobra.Command, args []string) {
			errs.fail(runRead(cmd.Context(), params, ui))
		},
	}.ToCobra()
}

func runRead(ctx context.Context, p *ReadParams, ui frontend) error {
	cfg, err := loadConfig(p.settings())
	if err != nil {
		return err
	}
	defer setupLogging(cfg)()

	s, err := localSession(ctx, p, cfg)
	if err != nil {
		return err
	}
	return ui(ctx, s)
}

func openCmd(ui frontend, errs *runErr) *cobra.Command {
	return boa.CmdT[OpenParams]{
		Use:         "open",
		Short:       "Read and listen to a novel from the backend",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *OpenParams, cmd *cobra.Command, args []string) {
			errs.fail(runOpen(cmd.Context(), params, ui))
		},
	}.ToCobra()
}

func runOpen(ctx context.Context, p *OpenParams, ui frontend) error {
	cfg, err := loadConfig(p.settings())
	if err != nil {
		return err
	}
	defer setupLogging(cfg)()

	s, err := remoteSession(ctx, newClient(cfg), p.ID, p, cfg)
	if err != nil {
		return err
	}
	return ui(ctx, s)
}

func novelsCmd(errs *runErr) *cobra.Command {
	return boa.CmdT[ServerParams]{
		Use:         "novels",
		Short:       "List your novels",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *ServerParams, cmd *cobra.Command, args []string) {
			errs.fail(runNovels(cmd.Context(), params, cmd.OutOrStdout()))
		},
	}.ToCobra()
}

func runNovels(ctx context.Context, p *ServerParams, w io.Writer) error {
	cfg, err := loadConfig(settings{Server: p.Server, Debug: p.Debug})
	if err != nil {
		return err
	}
	defer setupLogging(cfg)()

	novels, err := newClient(cfg).ListNovels(ctx)
	if err != nil {
		return explainAPIError(err)
	}
	renderNovels(w, novels)
	return nil
}

var errPasswordMismatch = errors.New("passwords do not match")

// credentialsFrom returns the email and password of p, prompting for a
// missing password. With confirm set the prompt is repeated and both entries
// must match.
func credentialsFrom(p *AuthParams, prompt func(string) (string, error), confirm bool) (string, string, error) {
	password := p.Password
	if password == "" {
		var err error
		password, err = prompt("Password: ")
		if err != nil {
			return "", "", err
		}
		if confirm && password != "" {
			again, err := prompt("Confirm password: ")
			if err != nil {
				return "", "", err
			}
			if again != password {
				return "", "", errPasswordMismatch
			}
		}
	}
	if strings.TrimSpace(p.Email) == "" || password == "" {
		return "", "", errors.New("email and password are required")
	}
	return p.Email, password, nil
}

func loginCmd(errs *runErr) *cobra.Command {
	return boa.CmdT[AuthParams]{
		Use:         "login",
		Short:       "Log in and cache the access token",
		Long:        "Log in and cache the access token. A --server given here is saved to the config file.",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *AuthParams, cmd *cobra.Command, args []string) {
			if err := runLogin(cmd.Context(), params); err != nil {
				errs.fail(err)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
		},
	}.ToCobra()
}

func runLogin(ctx context.Context, p *AuthParams) error {
	cfg, err := loadConfig(settings{Server: p.Server, Debug: p.Debug})
	if err != nil {
		return err
	}
	defer setupLogging(cfg)()

	email, password, err := credentialsFrom(p, readPassword, false)
	if err != nil {
		return err
	}
	token, err := api.New(cfg.APIURL, clientLogger()).Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := state.SaveToken(token); err != nil {
		return err
	}
	if p.Server != "" {
		if err := rememberServer(config.Path(), p.Server); err != nil {
			slog.Warn("saving server to config", "error", err)
		}
	}
	return nil
}

func registerCmd(errs *runErr) *cobra.Command {
	return boa.CmdT[AuthParams]{
		Use:         "register",
		Short:       "Create an account",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *AuthParams, cmd *cobra.Command, args []string) {
			if err := runRegister(cmd.Context(), params); err != nil {
				errs.fail(err)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account created. Run 'narr login' to sign in.")
		},
	}.ToCobra()
}

func runRegister(ctx context.Context, p *AuthParams) error {
	cfg, err := loadConfig(settings{Server: p.Server, Debug: p.Debug})
	if err != nil {
		return err
	}
	defer setupLogging(cfg)()

	email, password, err := credentialsFrom(p, readPassword, stdinIsTerminal())
	if err != nil {
		return err
	}
	return api.New(cfg.APIURL, clientLogger()).Register(ctx, email, password)
}

func logoutCmd(errs *runErr) *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "logout",
		Short: "Forget the cached access token",
		RunFunc: func(params *boa.NoParams, cmd *cobra.Command, args []string) {
			errs.fail(state.DeleteToken())
		},
	}.ToCobra()
}

// newRootCmd assembles the CLI around a front end. Command errors are
// collected in errs.
func newRootCmd(ui frontend, errs *runErr) *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:     "narr",
		Short:   "Read novels page by page and listen to them sentence by sentence",
		Version: appVersion(),
		SubCmds: []*cobra.Command{
			readCmd(ui, errs),
			openCmd(ui, errs),
			novelsCmd(errs),
			loginCmd(errs),
			registerCmd(errs),
			logoutCmd(errs),
		},
	}.ToCobra()
}

// coordinatorOptions enables real audio when the build can produce sound.
func coordinatorOptions() []playback.Option {
	if !playback.AudioAvailable {
		return nil
	}
	return []playback.Option{playback.WithOpener(playback.NewOpener())}
}

// execute runs the CLI with one playback coordinator for the whole process.
func execute(ui frontend) {
	coord := playback.NewCoordinator(coordinatorOptions()...)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx = playback.NewContext(ctx, coord)

	errs := &runErr{}
	err := newRootCmd(ui, errs).ExecuteContext(ctx)
	stop()
	coord.Close()

	if errs.err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", errs.err)
		os.Exit(1)
	}
	if err != nil {
		os.Exit(1)
	}
}
