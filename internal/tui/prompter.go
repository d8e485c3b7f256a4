package tui

import "sync"

// Prompter bridges the controllers' confirm/notify calls to the screen.
// Confirmation is given up front with Arm; Confirm consumes it.
type Prompter struct {
	mu     sync.Mutex
	armed  bool
	status string
}

// NewPrompter returns a disarmed prompter with no status.
func NewPrompter() *Prompter {
	return &Prompter{}
}

// Arm makes the next Confirm answer yes.
func (p *Prompter) Arm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.armed = true
}

// Confirm returns whether Arm was called since the last Confirm.
func (p *Prompter) Confirm(string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	ok := p.armed
	p.armed = false
	return ok
}

// Notify replaces the status line.
func (p *Prompter) Notify(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = message
}

// Status returns the last notification.
func (p *Prompter) Status() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
