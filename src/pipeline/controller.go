package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"screen-translator/src/entity"
	"screen-translator/src/input"
	"screen-translator/src/logutil"
	"screen-translator/src/preprocess"
	"screen-translator/src/screenshot"
	"screen-translator/src/translate"
)

const NoTextMessage = "No text was extracted from the image."

type Menu interface {
	NextChoice(ctx context.Context) (input.Choice, error)
}

type Capturer interface {
	CaptureActiveWindow(ctx context.Context) (*image.RGBA, error)
	CaptureManualRegion(ctx context.Context) (*image.RGBA, error)
}

type Extractor interface {
	Extract(ctx context.Context, img image.Image) (string, error)
}

// Translator returns the raw provider response for text.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Recorder observes stage timings and iteration outcomes.
type Recorder interface {
	ObserveStage(stage string, d time.Duration, err error)
	ObserveOutcome(outcome string)
}

type Options struct {
	Menu       Menu
	Capturer   Capturer
	Extractor  Extractor
	Translator Translator

	// Optional; defaults are preprocess.NormalizeContext,
	// translate.ParseResponse and entity.DefaultDecoder.
	Normalize func(context.Context, image.Image) (*image.Gray, error)
	Parse     func(body string) (string, error)
	Decoder   *entity.Decoder

	Targets []ResultTarget
	// Status receives the usage hint and informational lines.
	Status io.Writer
	Hint   string

	// StageDeadline bounds normalization, extraction and translation; zero
	// disables it.
	StageDeadline time.Duration
	Recorder      Recorder
	OnTransition  func(from, to State)

	// DebugImagePath, when set, receives the normalized image each iteration.
	DebugImagePath string
}

// Result is the outcome of one capture-to-translation iteration.
type Result struct {
	Outcome    Outcome
	Recognized string
	Text       string
}

// Controller drives the menu loop. It is not safe for concurrent use.
type Controller struct {
	opts  Options
	state State
}

func New(opts Options) (*Controller, error) {
	switch {
	case opts.Capturer == nil:
		return nil, errors.New("pipeline: capturer is required")
	case opts.Extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	case opts.Translator == nil:
		return nil, errors.New("pipeline: translator is required")
	}
	if opts.Normalize == nil {
		opts.Normalize = preprocess.NormalizeContext
	}
	if opts.Parse == nil {
		opts.Parse = translate.ParseResponse
	}
	if opts.Decoder == nil {
		opts.Decoder = entity.DefaultDecoder()
	}
	if len(opts.Targets) == 0 {
		opts.Targets = []ResultTarget{ConsoleTarget{}}
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}
	return &Controller{opts: opts, state: AwaitingCredential}, nil
}

func (c *Controller) State() State { return c.state }

func (c *Controller) transition(to State) {
	from := c.state
	c.state = to
	if from != to {
		log.Printf("state: %s -> %s", from, to)
	}
	if c.opts.OnTransition != nil {
		c.opts.OnTransition(from, to)
	}
}

// Run loops on menu choices until quit or ctx cancellation. Stage failures
// are reported and never end the loop.
func (c *Controller) Run(ctx context.Context) error {
	if c.opts.Menu == nil {
		return errors.New("pipeline: menu is required to run the loop")
	}
	c.transition(MenuIdle)
	for {
		c.printHint()
		choice, err := c.nextChoice(ctx)
		if err != nil {
			c.transition(Exit)
			if ctx.Err() != nil || errors.Is(err, input.ErrClosed) {
				return nil
			}
			return fmt.Errorf("menu: %w", err)
		}

		if choice == input.Quit {
			c.transition(Exit)
			return nil
		}

		_, _ = c.Process(ctx, choice)
		if ctx.Err() != nil {
			c.transition(Exit)
			return nil
		}
	}
}

// nextChoice skips anything that is not a capture or quit choice.
func (c *Controller) nextChoice(ctx context.Context) (input.Choice, error) {
	for {
		choice, err := c.opts.Menu.NextChoice(ctx)
		if err != nil {
			return input.None, err
		}
		switch choice {
		case input.ActiveWindow, input.Region, input.Quit:
			return choice, nil
		}
		log.Printf("ignoring menu choice %s", choice)
	}
}

func (c *Controller) printHint() {
	if c.opts.Hint != "" {
		fmt.Fprintln(c.opts.Status, c.opts.Hint)
	}
}

// Process runs one iteration for a capture choice and returns to MenuIdle.
// A failed stage is reported to the targets and returned as *StageError.
func (c *Controller) Process(ctx context.Context, choice input.Choice) (Result, error) {
	defer c.transition(MenuIdle)

	var img *image.RGBA
	err := c.runStage(ctx, Capturing, false, func(ctx context.Context) error {
		var err error
		switch choice {
		case input.ActiveWindow:
			img, err = c.opts.Capturer.CaptureActiveWindow(ctx)
		case input.Region:
			img, err = c.opts.Capturer.CaptureManualRegion(ctx)
		default:
			err = fmt.Errorf("unsupported choice %s", choice)
		}
		return err
	})
	if err != nil {
		return c.fail(err)
	}

	var normalized *image.Gray
	err = c.runStage(ctx, Normalizing, true, func(ctx context.Context) error {
		var err error
		normalized, err = c.opts.Normalize(ctx, img)
		return err
	})
	if err != nil {
		return c.fail(err)
	}
	c.saveDebugImage(normalized)

	var recognized string
	err = c.runStage(ctx, Extracting, true, func(ctx context.Context) error {
		var err error
		recognized, err = c.opts.Extractor.Extract(ctx, normalized)
		return err
	})
	if err != nil {
		return c.fail(err)
	}
	if strings.TrimSpace(recognized) == "" {
		log.Printf("no text extracted; skipping translation")
		fmt.Fprintln(c.opts.Status, NoTextMessage)
		c.observeOutcome(OutcomeNoText)
		return Result{Outcome: OutcomeNoText}, nil
	}
	log.Printf("recognized: %s", logutil.SanitizeForLog(recognized))

	var translated string
	err = c.runStage(ctx, Translating, true, func(ctx context.Context) error {
		body, err := c.opts.Translator.Translate(ctx, recognized)
		if err != nil {
			return err
		}
		translated, err = c.opts.Parse(body)
		return err
	})
	if err != nil {
		return c.fail(err)
	}

	c.transition(Decoding)
	text := c.opts.Decoder.Decode(translated)
	log.Printf("translated: %s", logutil.SanitizeForLog(text))

	c.transition(Reporting)
	for _, t := range c.opts.Targets {
		if err := t.OnSuccess(text); err != nil {
			log.Printf("result target failed: %v", err)
		}
	}
	c.observeOutcome(OutcomeTranslated)
	return Result{Outcome: OutcomeTranslated, Recognized: recognized, Text: text}, nil
}

func (c *Controller) runStage(ctx context.Context, s State, bounded bool, fn func(context.Context) error) error {
	c.transition(s)
	stageCtx := ctx
	if bounded && c.opts.StageDeadline > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, c.opts.StageDeadline)
		defer cancel()
	}

	start := time.Now()
	err := fn(stageCtx)
	if c.opts.Recorder != nil {
		c.opts.Recorder.ObserveStage(s.String(), time.Since(start), err)
	}
	if err != nil {
		return &StageError{Stage: s, Err: err}
	}
	return nil
}

func (c *Controller) fail(err error) (Result, error) {
	log.Printf("%v", err)
	for _, t := range c.opts.Targets {
		_ = t.OnFailure(err)
	}
	c.observeOutcome(OutcomeFailed)
	return Result{Outcome: OutcomeFailed}, err
}

func (c *Controller) observeOutcome(o Outcome) {
	if c.opts.Recorder != nil {
		c.opts.Recorder.ObserveOutcome(string(o))
	}
}

func (c *Controller) saveDebugImage(img *image.Gray) {
	if c.opts.DebugImagePath == "" {
		return
	}
	if err := screenshot.WritePNG(c.opts.DebugImagePath, img); err != nil {
		log.Printf("failed to save normalized image: %v", err)
	}
}
