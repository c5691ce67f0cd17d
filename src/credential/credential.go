package credential

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const promptText = "Please enter your API key: "

var ErrEmptyKey = errors.New("API key is empty")

// Prompt asks for the translation API key on w and reads one line from r.
func Prompt(r *bufio.Reader, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, promptText); err != nil {
		return "", err
	}
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read API key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", ErrEmptyKey
	}
	return key, nil
}
