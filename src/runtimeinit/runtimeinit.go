package runtimeinit

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"screen-translator/src/clipboard"
	"screen-translator/src/config"
	"screen-translator/src/credential"
	"screen-translator/src/logutil"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
}

// Bootstrap loads configuration, configures logging and initializes the
// optional clipboard. A clipboard failure only disables clipboard output.
func Bootstrap(opts Options) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	if cfg.CopyToClipboard {
		if err := clipboard.Init(); err != nil {
			log.Printf("clipboard disabled: %v", err)
			cfg.CopyToClipboard = false
		}
	}

	log.Printf("Configuration: source=%s target=%s ocr=%v input=%s deadline=%ds",
		cfg.SourceLang, cfg.TargetLang, cfg.OCRLanguages, cfg.InputMode, cfg.StageDeadlineSec)
	return cfg, nil
}

// ResolveAPIKey returns the configured key, prompting on r/w when none is set.
func ResolveAPIKey(cfg *config.Config, r *bufio.Reader, w io.Writer) (string, error) {
	if cfg.APIKey != "" {
		log.Printf("Using API key from configuration: %s", logutil.RedactKey(cfg.APIKey))
		return cfg.APIKey, nil
	}
	key, err := credential.Prompt(r, w)
	if err != nil {
		return "", err
	}
	log.Printf("Using API key from prompt: %s", logutil.RedactKey(key))
	return key, nil
}

// DebugImagePath derives "<name>.normalized.png" from the capture path.
func DebugImagePath(capturePath string) string {
	ext := filepath.Ext(capturePath)
	return strings.TrimSuffix(capturePath, ext) + ".normalized.png"
}
