package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"screen-translator/src/preprocess"
)

const (
	// DataPathEnvVar is consulted before every engine initialization.
	DataPathEnvVar  = "TESSDATA_PREFIX"
	DefaultDataPath = "./tessdata/"
)

// DefaultLanguages loads horizontal and vertical Japanese together so text
// laid out in either direction is recognized.
var DefaultLanguages = []string{"jpn", "jpn_vert"}

var (
	ErrInitFailed       = errors.New("OCR engine initialization failed")
	ErrExtractionFailed = errors.New("OCR failed to extract text")
)

// Client is the subset of *gosseract.Client used by the extractor.
type Client interface {
	SetTessdataPrefix(prefix string) error
	SetLanguage(langs ...string) error
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	Close() error
}

type Config struct {
	DataPath  string
	Languages []string
}

// Extractor runs one OCR engine per call; nothing is kept between calls.
type Extractor struct {
	dataPath  string
	languages []string
	newClient func() Client
}

func New(cfg Config) *Extractor {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = DefaultLanguages
	}
	dataPath := cfg.DataPath
	if dataPath == "" {
		dataPath = DefaultDataPath
	}
	return &Extractor{
		dataPath:  dataPath,
		languages: append([]string(nil), langs...),
		newClient: func() Client { return gosseract.NewClient() },
	}
}

// WithClientFactory replaces the engine constructor.
func (e *Extractor) WithClientFactory(f func() Client) *Extractor {
	e.newClient = f
	return e
}

// Languages returns the configured model identifiers.
func (e *Extractor) Languages() []string {
	return append([]string(nil), e.languages...)
}

// DataPath resolves the language-model directory, preferring the environment.
func (e *Extractor) DataPath() string {
	if p := strings.TrimSpace(os.Getenv(DataPathEnvVar)); p != "" {
		return p
	}
	return e.dataPath
}

// Extract recognizes text in img. An image without legible text yields an
// empty string and a nil error.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (string, error) {
	data, err := preprocess.EncodePNG(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return e.ExtractPNG(ctx, data)
}

// ExtractPNG is Extract for already encoded PNG bytes.
func (e *Extractor) ExtractPNG(ctx context.Context, data []byte) (string, error) {
	// Fast path: if no deadline, call the engine directly.
	if _, ok := ctx.Deadline(); !ok && ctx.Done() == nil {
		return e.recognize(data)
	}

	// The engine call cannot be interrupted; on timeout it finishes in the
	// background and still closes its client.
	resCh := make(chan struct {
		text string
		err  error
	}, 1)
	go func() {
		text, err := e.recognize(data)
		resCh <- struct {
			text string
			err  error
		}{text, err}
	}()

	select {
	case r := <-resCh:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (e *Extractor) recognize(data []byte) (string, error) {
	dataPath := e.DataPath()
	if err := checkModels(dataPath, e.languages); err != nil {
		return "", err
	}

	client := e.newClient()
	defer client.Close()

	if err := client.SetTessdataPrefix(dataPath); err != nil {
		return "", fmt.Errorf("%w: set tessdata prefix: %v", ErrInitFailed, err)
	}
	if err := client.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("%w: set language: %v", ErrInitFailed, err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("%w: set image: %v", ErrExtractionFailed, err)
	}

	text, err := client.Text()
	if err != nil {
		// gosseract initializes the engine lazily inside Text.
		if strings.Contains(err.Error(), "initialize") {
			return "", fmt.Errorf("%w: %v", ErrInitFailed, err)
		}
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	if strings.TrimSpace(text) == "" {
		log.Printf("OCR returned no text")
		return "", nil
	}
	log.Printf("OCR extracted %d bytes", len(text))
	return text, nil
}

// checkModels verifies a traineddata file exists for every language.
func checkModels(dataPath string, langs []string) error {
	for _, lang := range langs {
		model := filepath.Join(dataPath, lang+".traineddata")
		if _, err := os.Stat(model); err != nil {
			return fmt.Errorf("%w: language model %s not found in %s", ErrInitFailed, lang, dataPath)
		}
	}
	return nil
}
