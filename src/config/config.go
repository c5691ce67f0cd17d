package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	APIKeyEnvVar     = "TRANSLATE_API_KEY"
	APIKeyPathEnvVar = "TRANSLATE_API_KEY_FILE"
	AltEnvFileEnvVar = "SCREEN_TRANSLATOR"

	InputModeHook    = "hook"
	InputModeConsole = "console"

	defaultStageDeadlineSec = 20
	defaultMaxAttempts      = 3
)

type LoadOptions struct {
	APIKeyPathOverride    string
	InputModeOverride     string
	MetricsAddrOverride   string
	CaptureOutputOverride string
}

type Config struct {
	APIKey     string
	APIKeyPath string
	Endpoint   string
	SourceLang string
	TargetLang string

	TessdataPrefix string
	OCRLanguages   []string
	CaptureOutput  string

	StageDeadlineSec     int
	TranslateMaxAttempts int

	EnableFileLogging bool
	CopyToClipboard   bool
	DebugSaveImages   bool
	InputMode         string
	MetricsAddr       string

	KeyActiveWindow string
	KeyRegion       string
	KeyQuit         string
}

// StageDeadline is the per-stage bound for OCR and translation calls.
func (c *Config) StageDeadline() time.Duration {
	return time.Duration(c.StageDeadlineSec) * time.Second
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) .env in the executable directory
	// 2) if not found, the file named by SCREEN_TRANSLATOR
	// Process environment wins over either; options win over everything.
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	cfg := &Config{
		APIKey:     resolveAPIKey(apiKeyPath),
		APIKeyPath: apiKeyPath,
		Endpoint:   os.Getenv("TRANSLATE_ENDPOINT"),
		SourceLang: getEnvWithDefault("SOURCE_LANG", "ja"),
		TargetLang: getEnvWithDefault("TARGET_LANG", "en"),

		TessdataPrefix: getEnvWithDefault("TESSDATA_PREFIX", "./tessdata/"),
		OCRLanguages:   splitList(getEnvWithDefault("OCR_LANGUAGES", "jpn,jpn_vert")),
		CaptureOutput:  override(opts.CaptureOutputOverride, getEnvWithDefault("CAPTURE_OUTPUT", "screenshot.png")),

		StageDeadlineSec:     positiveInt("STAGE_DEADLINE_SEC", defaultStageDeadlineSec),
		TranslateMaxAttempts: positiveInt("TRANSLATE_MAX_ATTEMPTS", defaultMaxAttempts),

		EnableFileLogging: envBool("ENABLE_FILE_LOGGING"),
		CopyToClipboard:   envBool("COPY_TO_CLIPBOARD"),
		DebugSaveImages:   envBool("DEBUG_SAVE_IMAGES"),
		InputMode:         strings.ToLower(override(opts.InputModeOverride, getEnvWithDefault("INPUT_MODE", InputModeHook))),
		MetricsAddr:       override(opts.MetricsAddrOverride, os.Getenv("METRICS_ADDR")),

		KeyActiveWindow: getEnvWithDefault("KEY_ACTIVE_WINDOW", "1"),
		KeyRegion:       getEnvWithDefault("KEY_REGION", "2"),
		KeyQuit:         getEnvWithDefault("KEY_QUIT", "q"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.InputMode {
	case InputModeHook, InputModeConsole:
	default:
		return fmt.Errorf("invalid INPUT_MODE %q: want %q or %q", c.InputMode, InputModeHook, InputModeConsole)
	}
	if len(c.OCRLanguages) == 0 {
		return fmt.Errorf("OCR_LANGUAGES is empty")
	}
	if strings.TrimSpace(c.CaptureOutput) == "" {
		return fmt.Errorf("CAPTURE_OUTPUT is empty")
	}
	return nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(AltEnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := ""

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

// resolveAPIKey prefers the key file; the environment variable is the fallback.
func resolveAPIKey(keyPath string) string {
	if keyPath != "" {
		if data, err := os.ReadFile(keyPath); err == nil {
			if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
				return fileKey
			}
		}
	}

	return strings.TrimSpace(os.Getenv(APIKeyEnvVar))
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func override(opt, value string) string {
	if o := strings.TrimSpace(opt); o != "" {
		return o
	}
	return value
}

func envBool(key string) bool {
	return strings.ToLower(strings.TrimSpace(os.Getenv(key))) == "true"
}

func positiveInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
