package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"screen-translator/src/config"
	"screen-translator/src/hotkey"
	"screen-translator/src/input"
	"screen-translator/src/logutil"
	"screen-translator/src/metrics"
	"screen-translator/src/ocr"
	"screen-translator/src/pipeline"
	"screen-translator/src/runtimeinit"
	"screen-translator/src/screenshot"
	"screen-translator/src/translate"
)

type mainOptions struct {
	apiKeyPath  string
	inputMode   string
	metricsAddr string
	output      string
	verbose     bool
}

// pointerMenu is a menu that also provides region corners.
type pointerMenu interface {
	pipeline.Menu
	screenshot.Pointer
	Close() error
}

func main() {
	// Rectangles from GetWindowRect must be in physical pixels.
	enableDPIAwareness()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"screen-translator"}
	}

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-translator",
		Short:         "Capture a screen region, OCR Japanese text and translate it",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runInteractive(ctx, *opts, os.Stdin, os.Stdout, os.Stderr)
		},
	}

	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.inputMode, "input", "", "Input mode: hook (global keyboard/mouse) or console")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&opts.output, "output", "", "Capture output PNG path")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")

	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to their GNU form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	long := []string{"api-key-path", "input", "metrics-addr", "output", "verbose"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range long {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}

func runInteractive(ctx context.Context, opts mainOptions, in io.Reader, out, errOut io.Writer) error {
	setupLogging := logutil.Setup
	if opts.verbose {
		setupLogging = func(bool) { logutil.SetupStderr() }
	}

	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			APIKeyPathOverride:    opts.apiKeyPath,
			InputModeOverride:     opts.inputMode,
			MetricsAddrOverride:   opts.metricsAddr,
			CaptureOutputOverride: opts.output,
		},
		SetupLogging: setupLogging,
	})
	if err != nil {
		return err
	}
	logMonitorConfiguration()

	stdin := bufio.NewReader(in)
	apiKey, err := runtimeinit.ResolveAPIKey(cfg, stdin, out)
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}

	bindings, err := input.NewBindings(cfg.KeyActiveWindow, cfg.KeyRegion, cfg.KeyQuit)
	if err != nil {
		return fmt.Errorf("invalid key bindings: %w", err)
	}

	menu, err := openMenu(cfg, bindings, stdin, out)
	if err != nil {
		return err
	}
	defer menu.Close()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Printf("metrics server stopped: %v", err)
			}
		}()
	}

	ctrl, err := buildController(cfg, apiKey, bindings, menu, m, out, errOut)
	if err != nil {
		return err
	}
	return ctrl.Run(ctx)
}

func openMenu(cfg *config.Config, bindings input.Bindings, stdin *bufio.Reader, out io.Writer) (pointerMenu, error) {
	if cfg.InputMode == config.InputModeConsole {
		return input.NewLineMenu(bindings, stdin, out), nil
	}
	h, err := hotkey.NewHook(bindings)
	if err != nil {
		return nil, fmt.Errorf("failed to start input hook: %w", err)
	}
	return h, nil
}

func buildController(cfg *config.Config, apiKey string, bindings input.Bindings, menu pointerMenu, rec pipeline.Recorder, out, errOut io.Writer) (*pipeline.Controller, error) {
	targets := []pipeline.ResultTarget{pipeline.ConsoleTarget{Out: out, Err: errOut}}
	if cfg.CopyToClipboard {
		targets = append(targets, pipeline.ClipboardTarget{})
	}

	opts := pipeline.Options{
		Menu:     menu,
		Capturer: screenshot.NewCapturer(menu, cfg.CaptureOutput),
		Extractor: ocr.New(ocr.Config{
			DataPath:  cfg.TessdataPrefix,
			Languages: cfg.OCRLanguages,
		}),
		Translator: translate.New(translate.Config{
			Endpoint:    cfg.Endpoint,
			APIKey:      apiKey,
			Source:      cfg.SourceLang,
			Target:      cfg.TargetLang,
			MaxAttempts: cfg.TranslateMaxAttempts,
		}),
		Targets:       targets,
		Status:        errOut,
		Hint:          bindings.Hint(),
		StageDeadline: cfg.StageDeadline(),
		Recorder:      rec,
	}
	if cfg.DebugSaveImages {
		opts.DebugImagePath = runtimeinit.DebugImagePath(cfg.CaptureOutput)
	}
	return pipeline.New(opts)
}
