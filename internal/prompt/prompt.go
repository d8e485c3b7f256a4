package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(message string) bool
}

// Notifier shows the user a message.
type Notifier interface {
	Notify(message string)
}

// Prompter combines both capabilities.
type Prompter interface {
	Confirmer
	Notifier
}

// Terminal prompts on a line-oriented reader and writer.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal returns a Terminal reading answers from in and writing to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Confirm prints message and accepts "y", "yes", "o" or "oui". Anything else,
// including end of input, is a decline.
func (t *Terminal) Confirm(message string) bool {
	fmt.Fprintf(t.out, "%s [o/N] ", message)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(t.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "o", "oui":
		return true
	default:
		return false
	}
}

// Notify prints message on its own line.
func (t *Terminal) Notify(message string) {
	fmt.Fprintln(t.out, message)
}

// AutoConfirm answers every question with yes and forwards notifications.
type AutoConfirm struct {
	Notifier
}

// Confirm always returns true.
func (AutoConfirm) Confirm(string) bool { return true }

// Recorder is a scripted Prompter that keeps every message it was shown.
type Recorder struct {
	mu        sync.Mutex
	Answer    bool
	Questions []string
	Messages  []string
}

// Confirm records the question and returns Answer.
func (r *Recorder) Confirm(message string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Questions = append(r.Questions, message)
	return r.Answer
}

// Notify records the message.
func (r *Recorder) Notify(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, message)
}

// Last returns the most recent message, or "".
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1]
}
