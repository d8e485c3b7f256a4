package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/comptes-dev/comptes/internal/list"
	"github.com/comptes-dev/comptes/internal/model"
)

// Texts shown for the non-table views.
const (
	ListTitle     = "Liste des Comptes"
	LoadingNotice = "Chargement..."
	EmptyNotice   = "Aucun compte trouvé. Créez-en un nouveau."
)

var headers = []string{"ID", "Solde", "Date de création", "Type"}

// Styles holds the lipgloss styles for one output.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Checking lipgloss.Style
	Savings  lipgloss.Style
}

// NewStyles builds styles for r. Use lipgloss.NewRenderer(w) so colors are
// dropped when w is not a terminal.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("8")),
		Cell:     r.NewStyle(),
		Selected: r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Error:    r.NewStyle().Foreground(lipgloss.Color("9")),
		Muted:    r.NewStyle().Foreground(lipgloss.Color("8")),
		Checking: r.NewStyle().Foreground(lipgloss.Color("10")),
		Savings:  r.NewStyle().Foreground(lipgloss.Color("13")),
	}
}

// ListOptions tunes how a list state is drawn.
type ListOptions struct {
	Currency string
	// Cursor marks a row; negative means no marker.
	Cursor int
	// RetryHint is appended to the error view.
	RetryHint string
}

// List draws st: the loading notice, the error with its retry hint, the
// empty notice, or the table, in that order of precedence.
func (s Styles) List(st list.State, opts ListOptions) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(ListTitle))
	b.WriteString("\n\n")

	switch st.View() {
	case list.ViewLoading:
		b.WriteString(s.Muted.Render(LoadingNotice))
		b.WriteString("\n")
		return b.String()
	case list.ViewError:
		b.WriteString(s.Error.Render(st.Error))
		b.WriteString("\n")
		if opts.RetryHint != "" {
			b.WriteString(s.Muted.Render(opts.RetryHint))
			b.WriteString("\n")
		}
		return b.String()
	case list.ViewEmpty:
		b.WriteString(s.Muted.Render(EmptyNotice))
		b.WriteString("\n")
	case list.ViewTable:
		b.WriteString(s.table(st.Accounts, opts))
	}

	b.WriteString("\n")
	b.WriteString(s.Muted.Render(Total(st.Count())))
	b.WriteString("\n")
	return b.String()
}

func (s Styles) table(accounts []model.Account, opts ListOptions) string {
	rows := make([][]string, len(accounts))
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for i, a := range accounts {
		rows[i] = []string{
			a.ID.String(),
			FormatBalance(a.Balance, opts.Currency),
			FormatDate(a.CreationDate),
			a.Type.Label(),
		}
		for j, cell := range rows[i] {
			if w := lipgloss.Width(cell); w > widths[j] {
				widths[j] = w
			}
		}
	}

	var b strings.Builder
	b.WriteString("  ")
	for j, h := range headers {
		b.WriteString(s.Header.Width(widths[j] + 2).Render(h))
	}
	b.WriteString("\n")

	for i, row := range rows {
		cell := s.Cell
		if i == opts.Cursor {
			b.WriteString("> ")
			cell = s.Selected
		} else {
			b.WriteString("  ")
		}
		for j, text := range row {
			style := cell
			if j == len(row)-1 {
				style = s.badge(accounts[i].Type)
			}
			b.WriteString(style.Width(widths[j] + 2).Render(text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s Styles) badge(t model.AccountType) lipgloss.Style {
	if t == model.AccountTypeSavings {
		return s.Savings
	}
	return s.Checking
}

// WriteList draws st to w with styles suited to w.
func WriteList(w io.Writer, st list.State, opts ListOptions) error {
	s := NewStyles(lipgloss.NewRenderer(w))
	_, err := io.WriteString(w, s.List(st, opts))
	return err
}
