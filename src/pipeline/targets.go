package pipeline

import (
	"fmt"
	"io"
	"os"

	"screen-translator/src/clipboard"
)

// ResultTarget receives the outcome of each iteration.
type ResultTarget interface {
	OnSuccess(text string) error
	OnFailure(err error) error
}

// ConsoleTarget prints translations to Out and failures to Err.
type ConsoleTarget struct {
	Out io.Writer
	Err io.Writer
}

func (t ConsoleTarget) OnSuccess(text string) error {
	w := t.Out
	if w == nil {
		w = os.Stdout
	}
	_, err := fmt.Fprintf(w, "Translated text: %s\n", text)
	return err
}

func (t ConsoleTarget) OnFailure(err error) error {
	w := t.Err
	if w == nil {
		w = os.Stderr
	}
	_, werr := fmt.Fprintf(w, "Error: %v\n", err)
	return werr
}

type ClipboardTarget struct{}

func (ClipboardTarget) OnSuccess(text string) error {
	return clipboard.Write(text)
}

func (ClipboardTarget) OnFailure(err error) error {
	return nil
}
