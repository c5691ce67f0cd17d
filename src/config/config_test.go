package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment does not
// leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		APIKeyEnvVar, APIKeyPathEnvVar, AltEnvFileEnvVar,
		"TRANSLATE_ENDPOINT", "SOURCE_LANG", "TARGET_LANG", "TESSDATA_PREFIX",
		"OCR_LANGUAGES", "CAPTURE_OUTPUT", "STAGE_DEADLINE_SEC", "TRANSLATE_MAX_ATTEMPTS",
		"ENABLE_FILE_LOGGING", "COPY_TO_CLIPBOARD", "DEBUG_SAVE_IMAGES", "INPUT_MODE",
		"METRICS_ADDR", "KEY_ACTIVE_WINDOW", "KEY_REGION", "KEY_QUIT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.APIKey != "" {
		t.Errorf("Expected empty APIKey, got %q", cfg.APIKey)
	}
	if cfg.SourceLang != "ja" || cfg.TargetLang != "en" {
		t.Errorf("languages = %s -> %s", cfg.SourceLang, cfg.TargetLang)
	}
	if cfg.TessdataPrefix != "./tessdata/" {
		t.Errorf("TessdataPrefix = %q", cfg.TessdataPrefix)
	}
	if !reflect.DeepEqual(cfg.OCRLanguages, []string{"jpn", "jpn_vert"}) {
		t.Errorf("OCRLanguages = %v", cfg.OCRLanguages)
	}
	if cfg.CaptureOutput != "screenshot.png" {
		t.Errorf("CaptureOutput = %q", cfg.CaptureOutput)
	}
	if cfg.StageDeadline() != 20*time.Second {
		t.Errorf("StageDeadline = %v", cfg.StageDeadline())
	}
	if cfg.TranslateMaxAttempts != 3 {
		t.Errorf("TranslateMaxAttempts = %d", cfg.TranslateMaxAttempts)
	}
	if cfg.InputMode != InputModeHook {
		t.Errorf("InputMode = %q", cfg.InputMode)
	}
	if cfg.KeyActiveWindow != "1" || cfg.KeyRegion != "2" || cfg.KeyQuit != "q" {
		t.Errorf("keys = %q %q %q", cfg.KeyActiveWindow, cfg.KeyRegion, cfg.KeyQuit)
	}
	if cfg.EnableFileLogging || cfg.CopyToClipboard || cfg.DebugSaveImages {
		t.Error("boolean flags should default to false")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(APIKeyEnvVar, " test_api_key ")
	t.Setenv("ENABLE_FILE_LOGGING", "TRUE")
	t.Setenv("STAGE_DEADLINE_SEC", "5")
	t.Setenv("TRANSLATE_MAX_ATTEMPTS", "-1")
	t.Setenv("OCR_LANGUAGES", "jpn, eng ,")
	t.Setenv("KEY_QUIT", "esc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.APIKey != "test_api_key" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if !cfg.EnableFileLogging {
		t.Error("EnableFileLogging should be true")
	}
	if cfg.StageDeadlineSec != 5 {
		t.Errorf("StageDeadlineSec = %d", cfg.StageDeadlineSec)
	}
	if cfg.TranslateMaxAttempts != 3 {
		t.Errorf("invalid attempts should fall back to 3, got %d", cfg.TranslateMaxAttempts)
	}
	if !reflect.DeepEqual(cfg.OCRLanguages, []string{"jpn", "eng"}) {
		t.Errorf("OCRLanguages = %v", cfg.OCRLanguages)
	}
	if cfg.KeyQuit != "esc" {
		t.Errorf("KeyQuit = %q", cfg.KeyQuit)
	}
}

func TestKeyFileWinsOverEnv(t *testing.T) {
	clearEnv(t)
	keyFile := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyFile, []byte("file-key\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(APIKeyEnvVar, "env-key")
	t.Setenv(APIKeyPathEnvVar, keyFile)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "file-key" {
		t.Errorf("APIKey = %q, want file-key", cfg.APIKey)
	}
}

func TestMissingKeyFileFallsBackToEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(APIKeyEnvVar, "env-key")

	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: filepath.Join(t.TempDir(), "missing")})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", cfg.APIKey)
	}
}

func TestAltEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "translator.env")
	content := "TARGET_LANG=de\nCAPTURE_OUTPUT=from-file.png\nKEY_REGION=r\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(AltEnvFileEnvVar, envFile)
	// godotenv.Load does not override variables that are already set.
	os.Unsetenv("TARGET_LANG")
	os.Unsetenv("KEY_REGION")
	t.Setenv("CAPTURE_OUTPUT", "from-env.png")

	cfg, err := LoadWithOptions(LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("TARGET_LANG")
		os.Unsetenv("KEY_REGION")
	})
	if cfg.TargetLang != "de" {
		t.Errorf("TargetLang = %q, want de from file", cfg.TargetLang)
	}
	if cfg.KeyRegion != "r" {
		t.Errorf("KeyRegion = %q, want r from file", cfg.KeyRegion)
	}
	if cfg.CaptureOutput != "from-env.png" {
		t.Errorf("CaptureOutput = %q, want env to win", cfg.CaptureOutput)
	}
}

func TestOptionsOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("INPUT_MODE", "hook")
	t.Setenv("CAPTURE_OUTPUT", "env.png")

	cfg, err := LoadWithOptions(LoadOptions{
		InputModeOverride:     "Console",
		MetricsAddrOverride:   ":9100",
		CaptureOutputOverride: "flag.png",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InputMode != InputModeConsole {
		t.Errorf("InputMode = %q", cfg.InputMode)
	}
	if cfg.MetricsAddr != ":9100" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}
	if cfg.CaptureOutput != "flag.png" {
		t.Errorf("CaptureOutput = %q", cfg.CaptureOutput)
	}
}

func TestInvalidInputMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("INPUT_MODE", "telepathy")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid INPUT_MODE")
	}
}
