package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"screen-translator/src/logutil"
)

const (
	DefaultEndpoint = "https://translation.googleapis.com/language/translate/v2"
	DefaultSource   = "ja"
	DefaultTarget   = "en"

	defaultMaxAttempts = 3
	initialDelay       = 1 * time.Second
	requestTimeout     = 45 * time.Second
)

var (
	ErrTransport         = errors.New("translation request failed")
	ErrMalformedResponse = errors.New("malformed translation response")
	ErrEmptyText         = errors.New("nothing to translate")
)

// Client posts text to a Google Translate v2 compatible endpoint.
type Client struct {
	Endpoint    string
	APIKey      string
	Source      string
	Target      string
	MaxAttempts int
	// RetryDelay is the base delay; attempt n waits RetryDelay*1.5*n.
	RetryDelay time.Duration
	HTTPClient *http.Client
}

type Config struct {
	Endpoint    string
	APIKey      string
	Source      string
	Target      string
	MaxAttempts int
}

func New(cfg Config) *Client {
	c := &Client{
		Endpoint:    cfg.Endpoint,
		APIKey:      cfg.APIKey,
		Source:      cfg.Source,
		Target:      cfg.Target,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  initialDelay,
		HTTPClient:  &http.Client{Timeout: requestTimeout},
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Source == "" {
		c.Source = DefaultSource
	}
	if c.Target == "" {
		c.Target = DefaultTarget
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	return c
}

// EncodeForm builds the urlencoded request body.
func EncodeForm(text, source, target string) string {
	v := url.Values{}
	v.Set("q", text)
	v.Set("source", source)
	v.Set("target", target)
	return v.Encode()
}

// Translate sends text and returns the raw response body. The body is
// returned for every HTTP status; interpreting it is left to ParseResponse.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	endpoint, err := c.requestURL()
	if err != nil {
		return "", err
	}
	body := EncodeForm(text, c.Source, c.Target)

	var lastErr error
	for attempt := 0; attempt < c.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(c.RetryDelay) * (1.5 * float64(attempt)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrTransport, ctx.Err())
			}
		}

		raw, err := c.post(ctx, endpoint, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		log.Printf("translate attempt %d/%d failed: %v", attempt+1, c.MaxAttempts, err)
		if ctx.Err() != nil {
			break
		}
	}

	return "", fmt.Errorf("%w: failed after %d attempts: %v", ErrTransport, c.MaxAttempts, lastErr)
}

func (c *Client) requestURL() (string, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: invalid endpoint: %v", ErrTransport, err)
	}
	q := u.Query()
	q.Set("key", c.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) post(ctx context.Context, endpoint, body string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept-Encoding", "UTF-8")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request to %s: %v", c.Endpoint, redactErr(err, c.APIKey))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %v", err)
	}
	log.Printf("translate response: status %d, %d bytes", resp.StatusCode, len(raw))
	return string(raw), nil
}

// url.Error includes the full URL, which carries the key.
func redactErr(err error, key string) string {
	msg := err.Error()
	if key == "" {
		return msg
	}
	return strings.ReplaceAll(msg, key, logutil.RedactKey(key))
}

type response struct {
	Data *struct {
		Translations []struct {
			TranslatedText *string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ParseResponse extracts data.translations[0].translatedText. The result may
// still contain HTML entities.
func ParseResponse(body string) (string, error) {
	var r response
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if r.Error != nil {
		return "", fmt.Errorf("%w: API error %d: %s", ErrMalformedResponse, r.Error.Code, r.Error.Message)
	}
	if r.Data == nil || len(r.Data.Translations) == 0 || r.Data.Translations[0].TranslatedText == nil {
		return "", fmt.Errorf("%w: missing data.translations[0].translatedText", ErrMalformedResponse)
	}
	return *r.Data.Translations[0].TranslatedText, nil
}
