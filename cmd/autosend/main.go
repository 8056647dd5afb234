package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/v0xg/autosend/internal/browser"
	"github.com/v0xg/autosend/internal/config"
	"github.com/v0xg/autosend/internal/dom"
	"github.com/v0xg/autosend/internal/focus"
	"github.com/v0xg/autosend/internal/inject"
	"github.com/v0xg/autosend/internal/observability"
	"github.com/v0xg/autosend/internal/orchestrator"
	"github.com/v0xg/autosend/internal/resolver"
	"github.com/v0xg/autosend/internal/snapshot"
	"github.com/v0xg/autosend/internal/submit"
)

var (
	cfgFile        string
	inputSelector  string
	buttonSelector string
	verbose        bool
)

// flagKeys binds command-line flags to configuration keys.
var flagKeys = map[string]string{
	"payload":     "payload",
	"headless":    "browser.headless",
	"bin":         "browser.bin",
	"profile":     "browser.profile_dir",
	"control-url": "browser.control_url",
	"width":       "browser.width",
	"height":      "browser.height",
	"timeout":     "timing.timeout",
	"linger":      "timing.linger",
	"key-mode":    "submit.key_mode",
	"snapshot":    "snapshot.path",
	"log-level":   "logger.level",
	"log-format":  "logger.format",
	"log-file":    "logger.log_file",
}

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "autosend <url> [text]",
		Short: "Fill a web page's text box and send it",
		Long: `autosend opens a page, waits for its main text-entry element, fills it the
way typing would, then clicks the page's send button or presses Enter.

Settings come from autosend.yaml (./ or ~/.config/autosend/), AUTOSEND_*
environment variables and flags, flags winning.

Example:
  autosend "https://chatgpt.com/" "Summarize today's news"
  autosend --control-url 9222 --input-selector "#prompt" "https://example.com/chat" "hello"`,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE:         run,
	}

	f := rootCmd.Flags()
	f.StringVarP(&cfgFile, "config", "c", "", "Config file (default: autosend.yaml in . or ~/.config/autosend)")
	f.StringVarP(&inputSelector, "input-selector", "i", "", "CSS selector of the input element, overriding site rules")
	f.StringVarP(&buttonSelector, "button-selector", "b", "", "CSS selector of the send button, overriding site rules")
	f.BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level debug")

	f.StringP("payload", "p", "", "Text to send when no text argument is given")
	f.Bool("headless", false, "Run the browser without a window")
	f.String("bin", "", "Chrome/Chromium binary (default: looked up)")
	f.String("profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	f.String("control-url", "", "Attach to a running browser (DevTools URL or port) instead of launching one")
	f.Int("width", 1280, "Viewport width")
	f.Int("height", 800, "Viewport height")
	f.Duration("timeout", 0, "Give up if nothing is sent within this duration (0: wait forever)")
	f.Duration("linger", 2*time.Second, "Keep the page open this long after sending")
	f.String("key-mode", "synthetic", "Enter fallback delivery: synthetic or native")
	f.String("snapshot", "", "Save an annotated screenshot (.png or .gif) after sending")
	f.String("log-level", "info", "Log level: debug, info, warn, error")
	f.String("log-format", "console", "Log format: console or json")
	f.String("log-file", "", "Also write JSON logs to this rotated file")

	return rootCmd
}

// loadConfig layers defaults, the config file, AUTOSEND_* variables and
// changed flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)

	v.SetEnvPrefix("AUTOSEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("autosend")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "autosend"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	if verbose {
		v.Set("logger.level", "debug")
	}
	return config.NewConfigFromViper(v)
}

// selectorsFor returns the site rule for url with flag overrides applied.
func selectorsFor(cfg *config.Config, url string) dom.SelectorConfig {
	sel, _ := cfg.SelectorsFor(url)
	if inputSelector != "" {
		sel.InputBoxSelector = inputSelector
	}
	if buttonSelector != "" {
		sel.SendButtonSelector = buttonSelector
	}
	return sel
}

func run(cmd *cobra.Command, args []string) error {
	url := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) > 1 {
		cfg.Payload = args[1]
	}
	if cfg.Payload == "" {
		return errors.New("nothing to send: pass text as the second argument or set payload")
	}

	logger, closer, err := observability.NewConsoleLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timing.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timing.Timeout)
		defer cancel()
	}

	// Step 1: Open the page
	fmt.Printf("→ Opening %s... ", url)
	b, err := browser.Open(ctx, url, browser.Options{
		Headless:    cfg.Browser.Headless,
		Bin:         cfg.Browser.Bin,
		ProfileDir:  cfg.Browser.ProfileDir,
		ControlURL:  cfg.Browser.ControlURL,
		Width:       cfg.Browser.Width,
		Height:      cfg.Browser.Height,
		LoadTimeout: cfg.Browser.LoadTimeout,
	}, logger.Named("browser"))
	if err != nil {
		fmt.Println("failed")
		return err
	}
	defer b.Close()
	fmt.Println("done")

	selectors := selectorsFor(cfg, b.URL())
	logger.Debug("Selectors",
		zap.String("input_box_selector", selectors.InputBoxSelector),
		zap.String("send_button_selector", selectors.SendButtonSelector))

	// Step 2: Track focus so a click into the box is remembered
	state := &focus.State{}
	stopWatch, err := b.WatchFocus(ctx, focus.NewTracker(state, logger.Named("focus")))
	if err != nil {
		logger.Warn("Focus tracking unavailable", zap.Error(err))
	} else {
		defer stopWatch()
	}

	// Step 3: Wait, fill, send
	doc := b.Document()
	o := orchestrator.New(
		orchestrator.Config{
			Selectors: selectors,
			Payload:   cfg.Payload,
			Interval:  cfg.Timing.ResolveInterval,
		},
		resolver.New(doc, state, logger.Named("resolver")),
		inject.New(logger.Named("inject")),
		submit.New(doc, submit.Options{
			Interval: cfg.Timing.ButtonInterval,
			Timeout:  cfg.Timing.ButtonTimeout,
			KeyMode:  submit.KeyMode(cfg.Submit.KeyMode),
		}, logger.Named("submit")),
		logger.Named("orchestrator"))

	fmt.Println("→ Waiting for an input element...")
	res, err := o.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Println("⚠ Interrupted")
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("nothing sent within %s", cfg.Timing.Timeout)
	case err != nil:
		return err
	}
	fmt.Printf("✓ Sent via %s into %s (%s, attempt %d)\n",
		res.Outcome, res.Target.Info.Summary(), res.Target.Tier, res.Attempts)

	select {
	case <-time.After(cfg.Timing.Linger):
	case <-ctx.Done():
	}

	// Step 4: Optional snapshot
	if cfg.Snapshot.Path != "" {
		snapCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		target, _ := res.Target.Element.(snapshot.Boxer)
		size, err := snapshot.Capture(snapCtx, b, target, snapshot.Options{
			Path:     cfg.Snapshot.Path,
			MaxWidth: cfg.Snapshot.MaxWidth,
		})
		if err != nil {
			logger.Warn("Snapshot failed", zap.Error(err))
		} else {
			fmt.Printf("✓ Saved snapshot to %s (%.1f KB)\n", cfg.Snapshot.Path, float64(size)/1024)
		}
	}

	return errors.Join(res.InjectErr, res.SubmitErr)
}
