package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"portfolio-chat/internal/api"
	"portfolio-chat/internal/chat"
	"portfolio-chat/internal/config"
	"portfolio-chat/internal/display"
	"portfolio-chat/internal/logging"
	"portfolio-chat/internal/mock"
	"portfolio-chat/internal/tui"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Set by -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var activeProfile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		display.Error(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portfolio-chat",
		Short:         "Chat with the portfolio assistant from your terminal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmdChat(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&activeProfile, "profile", "", "use a named config profile")

	root.AddCommand(
		&cobra.Command{
			Use:   "chat",
			Short: "Open the chat widget (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return cmdChat(cmd.Context())
			},
		},
		&cobra.Command{
			Use:     "ask <question>",
			Short:   "Ask one question and stream the answer to stdout",
			Args:    cobra.MinimumNArgs(1),
			Example: `  portfolio-chat ask "What projects are featured?"`,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cmdAsk(cmd.Context(), strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "ping",
			Short: "Check that the assistant endpoint is reachable",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return cmdPing(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Show the current configuration",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return cmdConfig()
			},
		},
		newSetCmd(),
		&cobra.Command{
			Use:   "profiles",
			Short: "List config profiles",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return cmdProfiles()
			},
		},
		newMockCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), versionString())
			},
		},
	)
	return root
}

// ─── setup ──────────────────────────────────────────────────────────────────

// deps is what every networked command needs: validated config, a
// logger and the means to close the log file.
type deps struct {
	cfg    *config.Config
	log    zerolog.Logger
	closer io.Closer
}

func setup() (*deps, error) {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, closer, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("profile", config.ProfileName(activeProfile)).Str("endpoint", cfg.StreamURL()).Msg("config loaded")
	return &deps{cfg: cfg, log: log, closer: closer}, nil
}

// ─── chat ───────────────────────────────────────────────────────────────────

func cmdChat(ctx context.Context) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.closer.Close()

	client := api.NewClient(rt.cfg, rt.log)
	return tui.Run(ctx, version, rt.cfg, client, rt.log)
}

// ─── ask ────────────────────────────────────────────────────────────────────

func cmdAsk(ctx context.Context, question string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.closer.Close()

	client := api.NewClient(rt.cfg, rt.log)
	w := chat.New(chat.Options{Greeting: rt.cfg.Greeting, Logger: &rt.log})

	req, ok := w.Submit(ctx, question)
	if !ok {
		return fmt.Errorf("question is empty")
	}

	display.Spinner("Typing…")
	var shown strings.Builder
	consumed := 0
	start := time.Now()

	// Print only the new tail of the accumulator on every chunk. Nothing is
	// printed until the reply has visible text, and that text starts at its
	// first non-space character.
	err = chat.Run(w, client, req, func(acc *chat.Accumulator) {
		text := acc.Text()
		tail := text[consumed:]
		consumed = len(text)
		if shown.Len() == 0 {
			tail = strings.TrimLeft(tail, " \t\r\n")
			if tail == "" {
				return
			}
			display.ClearLine()
		}
		fmt.Fprint(display.Stdout, tail)
		shown.WriteString(tail)
	})

	last, _ := w.Last()
	switch {
	case shown.Len() == 0:
		display.ClearLine()
		display.Reply(last.Text)
	case err != nil:
		// A failed reply replaces whatever part of it was already shown.
		display.ClearLines(strings.Count(shown.String(), "\n") + 1)
		display.Reply(last.Text)
	default:
		fmt.Fprintln(display.Stdout)
	}
	if err != nil {
		rt.log.Warn().Err(err).Str("request_id", req.ID).Msg("ask failed")
		return nil
	}

	fmt.Fprintf(display.Stdout, "%s %s%s%s\n", display.ReplyLabel(last.Text), display.Gray, display.FormatDuration(time.Since(start)), display.Reset)
	return nil
}

// ─── ping ───────────────────────────────────────────────────────────────────

func cmdPing(ctx context.Context) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.closer.Close()

	var client api.AssistantAPI = api.NewClient(rt.cfg, rt.log)

	display.Spinner("Contacting " + rt.cfg.Endpoint + " ...")
	start := time.Now()
	health, err := client.Health(ctx)
	display.ClearLine()
	if err != nil {
		return fmt.Errorf("endpoint unreachable: %w", err)
	}

	display.Success(fmt.Sprintf("%s is up (status %q, %s)", rt.cfg.Endpoint, health.Status, display.FormatDuration(time.Since(start))))
	return nil
}

// ─── set ────────────────────────────────────────────────────────────────────

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: `Set a config value in the active profile.

Keys:
  endpoint         Assistant base URL (e.g. https://host)
  path             Stream path (default /chat/stream)
  framing          lines | chunks | sse
  timeout          Request timeout (e.g. 2m)
  cancel_on_close  Cancel the pending reply when the panel closes (true/false)
  markdown         Render replies as markdown (true/false)
  title            Panel header title
  greeting         First assistant message
  popup            Hint shown next to the closed button
  placeholder      Input placeholder
  icon_path        Text-art file drawn on the button
  log_file         Write logs to this file
  log_level        debug | info | warn | error`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmdSet(args[0], args[1])
		},
	}
}

func cmdSet(key, value string) error {
	cfg, err := config.LoadFile(activeProfile)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	display.Success(fmt.Sprintf("%s set to %s", key, value))
	return nil
}

// ─── config ─────────────────────────────────────────────────────────────────

func cmdConfig() error {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}

	display.Header("Portfolio Chat Configuration")

	display.Info("Profile:", config.ProfileName(activeProfile))
	display.Info("Stream URL:", cfg.StreamURL())
	display.Info("Framing:", cfg.Framing)
	display.Info("Timeout:", cfg.Timeout.String())
	display.Info("Cancel on close:", fmt.Sprint(cfg.CancelOnClose))
	display.Info("Markdown:", fmt.Sprint(cfg.Markdown))
	display.Info("Title:", display.OrUnset(cfg.Title))
	display.Info("Popup:", display.OrUnset(cfg.Popup))
	display.Info("Icon:", display.OrUnset(cfg.IconPath))
	display.Info("Log file:", display.OrUnset(cfg.LogFile))
	fmt.Fprintln(display.Stdout)

	return nil
}

// ─── profiles ───────────────────────────────────────────────────────────────

func cmdProfiles() error {
	profiles, err := config.ListProfiles()
	if err != nil {
		return err
	}

	display.Header(fmt.Sprintf("Profiles (%d)", len(profiles)))

	if len(profiles) == 0 {
		display.Warn("No profiles found.")
		return nil
	}

	for _, p := range profiles {
		marker := " "
		if p == config.ProfileName(activeProfile) {
			marker = display.Green + "●" + display.Reset
		}
		fmt.Fprintf(display.Stdout, "  %s %s\n", marker, p)
	}
	fmt.Fprintln(display.Stdout)

	return nil
}

// ─── mock ───────────────────────────────────────────────────────────────────

func newMockCmd() *cobra.Command {
	var (
		addr   string
		answer string
		delay  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Run a local stand-in for the assistant backend",
		Example: `  portfolio-chat mock --addr :8000 --delay 80ms
  PORTFOLIO_CHAT_ENDPOINT=http://localhost:8000 portfolio-chat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				With().Timestamp().Logger()
			srv := mock.New(mock.Options{Answer: answer, Delay: delay, Logger: log})
			return srv.Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	cmd.Flags().StringVar(&answer, "answer", "", "canned answer to stream")
	cmd.Flags().DurationVar(&delay, "delay", 60*time.Millisecond, "pause between streamed words")
	return cmd
}

// ─── version ────────────────────────────────────────────────────────────────

func versionString() string {
	s := "portfolio-chat " + version
	if commit != "none" {
		s += "\n  commit: " + commit + "\n  built:  " + date
	}
	return s
}
