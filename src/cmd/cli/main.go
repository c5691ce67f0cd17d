package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-translator/src/config"
	"screen-translator/src/input"
	"screen-translator/src/logutil"
	"screen-translator/src/ocr"
	"screen-translator/src/pipeline"
	"screen-translator/src/preprocess"
	"screen-translator/src/runtimeinit"
	"screen-translator/src/translate"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	filePath   string
	jsonOutput bool
	verbose    bool
	apiKeyPath string
}

// stages are the OCR and translation backends; tests replace them.
type stages struct {
	extractor  pipeline.Extractor
	translator pipeline.Translator
}

func defaultStages(cfg *config.Config) stages {
	return stages{
		extractor: ocr.New(ocr.Config{DataPath: cfg.TessdataPrefix, Languages: cfg.OCRLanguages}),
		translator: translate.New(translate.Config{
			Endpoint:    cfg.Endpoint,
			APIKey:      cfg.APIKey,
			Source:      cfg.SourceLang,
			Target:      cfg.TargetLang,
			MaxAttempts: cfg.TranslateMaxAttempts,
		}),
	}
}

func main() {
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
		args = []string{"translate-image"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts, os.Stdin, os.Stdout, os.Stderr, defaultStages)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions, stdin io.Reader, stdout, stderr io.Writer, build func(*config.Config) stages) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "translate-image",
		Short:         "OCR a PNG and translate the recognized text",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, stdin, stdout, stderr, build)
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, stdin io.Reader, stdout, stderr io.Writer, build func(*config.Config) stages) error {
	verbosef := func(format string, a ...any) {
		if opts.verbose {
			fmt.Fprintf(stderr, "[verbose] "+format+"\n", a...)
		}
	}

	setupLogging := func(bool) { log.SetOutput(io.Discard) }
	if opts.verbose {
		setupLogging = func(bool) { logutil.SetupStderr() }
	}
	verbosef("Starting translate-image")

	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:  config.LoadOptions{APIKeyPathOverride: opts.apiKeyPath},
		SetupLogging: setupLogging,
	})
	if err != nil {
		return err
	}
	verbosef("Effective API key path: %s", cfg.APIKeyPath)

	if cfg.APIKey == "" {
		return fmt.Errorf("%s not found. Checked key file %q and %s env var", config.APIKeyEnvVar, cfg.APIKeyPath, config.APIKeyEnvVar)
	}
	verbosef("Using API key %s", logutil.RedactKey(cfg.APIKey))

	data, err := readInput(opts.filePath, stdin)
	if err != nil {
		return err
	}
	verbosef("Read %d bytes", len(data))
	if err := validatePNG(data); err != nil {
		return err
	}

	img, err := preprocess.DecodePNG(data)
	if err != nil {
		return err
	}

	st := build(cfg)
	ctrl, err := pipeline.New(pipeline.Options{
		Capturer:      staticCapturer{img: img},
		Extractor:     st.extractor,
		Translator:    st.translator,
		Targets:       []pipeline.ResultTarget{discardTarget{}},
		Status:        io.Discard,
		StageDeadline: cfg.StageDeadline(),
	})
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := ctrl.Process(ctx, input.ActiveWindow)
	elapsed := time.Since(start)
	if err != nil {
		verbosef("Failed after %v: %v", elapsed, err)
		return err
	}
	verbosef("Completed in %v (%s)", elapsed, res.Outcome)

	return outputResult(stdout, res, opts.filePath, elapsed, opts.jsonOutput)
}

func readInput(filePath string, stdin io.Reader) ([]byte, error) {
	var data []byte
	var err error
	if filePath == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	return data, nil
}

func validatePNG(data []byte) error {
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

// normalizeLegacyArgs maps single-dash long flags to their GNU form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"file", "json", "verbose", "api-key-path"} {
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

type staticCapturer struct {
	img image.Image
}

func (s staticCapturer) CaptureActiveWindow(context.Context) (*image.RGBA, error) {
	return toRGBA(s.img), nil
}

func (s staticCapturer) CaptureManualRegion(ctx context.Context) (*image.RGBA, error) {
	return s.CaptureActiveWindow(ctx)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, img.At(x, y))
		}
	}
	return dst
}

// discardTarget drops results; the CLI prints the Result returned by Process.
type discardTarget struct{}

func (discardTarget) OnSuccess(string) error { return nil }
func (discardTarget) OnFailure(error) error  { return nil }

type TranslationResult struct {
	Source     string  `json:"source"`
	Recognized string  `json:"recognized_text"`
	Translated string  `json:"translated_text"`
	NoText     bool    `json:"no_text,omitempty"`
	Timestamp  string  `json:"timestamp"`
	Duration   float64 `json:"duration_seconds"`
	CharCount  int     `json:"character_count"`
}

func outputResult(w io.Writer, res pipeline.Result, sourcePath string, elapsed time.Duration, jsonOutput bool) error {
	if jsonOutput {
		result := TranslationResult{
			Source:     sourcePath,
			Recognized: res.Recognized,
			Translated: res.Text,
			NoText:     res.Outcome == pipeline.OutcomeNoText,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Duration:   elapsed.Seconds(),
			CharCount:  len([]rune(res.Text)),
		}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}

	if res.Outcome == pipeline.OutcomeNoText {
		_, err := fmt.Fprintln(w, pipeline.NoTextMessage)
		return err
	}
	_, err := fmt.Fprintln(w, res.Text)
	return err
}
