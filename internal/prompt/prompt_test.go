package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"o\n", true},
		{"oui\n", true},
		{"Y\n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		term := NewTerminal(strings.NewReader(tt.input), &out)
		assert.Equal(t, tt.want, term.Confirm("Supprimer ?"), "input %q", tt.input)
		assert.Contains(t, out.String(), "Supprimer ? [o/N]")
	}
}

func TestTerminalNotify(t *testing.T) {
	var out bytes.Buffer
	NewTerminal(strings.NewReader(""), &out).Notify("Compte ajouté avec succès")
	assert.Equal(t, "Compte ajouté avec succès\n", out.String())
}

func TestAutoConfirm(t *testing.T) {
	rec := &Recorder{}
	p := AutoConfirm{Notifier: rec}
	assert.True(t, p.Confirm("anything"))
	p.Notify("done")
	assert.Equal(t, "done", rec.Last())
	assert.Empty(t, rec.Questions)
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{Answer: true}
	assert.Equal(t, "", rec.Last())
	assert.True(t, rec.Confirm("q1"))
	rec.Notify("m1")
	rec.Notify("m2")
	assert.Equal(t, []string{"q1"}, rec.Questions)
	assert.Equal(t, "m2", rec.Last())
}
