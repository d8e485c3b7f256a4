package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/comptes-dev/comptes/internal/app"
	"github.com/comptes-dev/comptes/internal/form"
	"github.com/comptes-dev/comptes/internal/list"
	"github.com/comptes-dev/comptes/internal/model"
	"github.com/comptes-dev/comptes/internal/render"
)

// screen is the active part of the interface.
type screen int

const (
	screenList screen = iota
	screenForm
	screenConfirm
)

// Form focus positions. The type field is a toggle, not a text input.
const (
	focusBalance = iota
	focusDate
	focusType
	numFocus
)

const (
	listHelp    = "↑/↓ naviguer • n nouveau • e modifier • d supprimer • r actualiser • q quitter"
	formHelp    = "tab champ suivant • espace type • entrée valider • échap annuler"
	confirmHelp = "o oui • n non"
	retryHint   = "Appuyez sur r pour réessayer."
)

type reloadedMsg struct{ err error }

type submittedMsg struct{ err error }

type deletedMsg struct {
	deleted bool
	err     error
}

// Model is the bubbletea model for the interactive view.
type Model struct {
	ctx      context.Context
	coord    *app.Coordinator
	prompter *Prompter
	currency string
	styles   render.Styles

	screen     screen
	cursor     int
	confirmID  model.ID
	focus      int
	balance    textinput.Model
	date       textinput.Model
	accountTyp model.AccountType

	// pending is set from enter until submittedMsg arrives.
	pending bool

	width, height int
}

// New returns a model driving coord. p must be the prompter coord was built
// with.
func New(ctx context.Context, coord *app.Coordinator, p *Prompter, currency string) Model {
	balance := textinput.New()
	balance.Placeholder = "0.00"
	balance.Prompt = ""
	balance.CharLimit = 20

	date := textinput.New()
	date.Placeholder = "AAAA-MM-JJ"
	date.Prompt = ""
	date.CharLimit = 10

	return Model{
		ctx:        ctx,
		coord:      coord,
		prompter:   p,
		currency:   currency,
		styles:     render.NewStyles(lipgloss.DefaultRenderer()),
		balance:    balance,
		date:       date,
		accountTyp: model.DefaultAccountType,
	}
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, coord *app.Coordinator, p *Prompter, currency string) error {
	_, err := tea.NewProgram(New(ctx, coord, p, currency), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.mountCmd()
}

func (m Model) mountCmd() tea.Cmd {
	return func() tea.Msg {
		return reloadedMsg{err: m.coord.Mount(m.ctx)}
	}
}

func (m Model) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		return reloadedMsg{err: m.coord.Reload(m.ctx)}
	}
}

func (m Model) submitCmd() tea.Cmd {
	return func() tea.Msg {
		return submittedMsg{err: m.coord.Submit(m.ctx)}
	}
}

func (m Model) deleteCmd(id model.ID) tea.Cmd {
	return func() tea.Msg {
		deleted, err := m.coord.Delete(m.ctx, id)
		return deletedMsg{deleted: deleted, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case reloadedMsg, deletedMsg:
		m.clampCursor()
		return m, nil
	case submittedMsg:
		m.pending = false
		if msg.err == nil {
			m.screen = screenList
			m.syncInputs()
			m.clampCursor()
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen {
		case screenForm:
			return m.updateForm(msg)
		case screenConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.coord.List.State()
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < st.Count()-1 {
			m.cursor++
		}
	case "r":
		return m, m.reloadCmd()
	case "n", "a":
		m.coord.Cancel()
		m.openForm()
	case "e", "enter":
		if id, ok := m.selected(st); ok {
			if err := m.coord.Edit(id); err != nil {
				m.prompter.Notify(err.Error())
				return m, nil
			}
			m.openForm()
		}
	case "d", "delete":
		if id, ok := m.selected(st); ok {
			m.confirmID = id
			m.screen = screenConfirm
		}
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "o", "y":
		m.prompter.Arm()
	case "n", "esc":
	default:
		return m, nil
	}
	m.screen = screenList
	// The controller asks the prompter; a decline makes no delete call.
	return m, m.deleteCmd(m.confirmID)
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.coord.Cancel()
		m.syncInputs()
		m.screen = screenList
		return m, nil
	case "enter":
		if m.pending || m.coord.Form.Submitting() {
			return m, nil
		}
		m.pending = true
		return m, m.submitCmd()
	case "tab", "down":
		m.setFocus((m.focus + 1) % numFocus)
		return m, nil
	case "shift+tab", "up":
		m.setFocus((m.focus + numFocus - 1) % numFocus)
		return m, nil
	}

	if m.focus == focusType {
		switch msg.String() {
		case " ", "space", "left", "right", "h", "l":
			if m.accountTyp == model.AccountTypeSavings {
				m.accountTyp = model.AccountTypeChecking
			} else {
				m.accountTyp = model.AccountTypeSavings
			}
			_ = m.coord.Form.UpdateField(form.FieldType, string(m.accountTyp))
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == focusBalance {
		m.balance, cmd = m.balance.Update(msg)
		_ = m.coord.Form.UpdateField(form.FieldBalance, m.balance.Value())
	} else {
		m.date, cmd = m.date.Update(msg)
		_ = m.coord.Form.UpdateField(form.FieldCreationDate, m.date.Value())
	}
	return m, cmd
}

func (m *Model) openForm() {
	m.syncInputs()
	m.setFocus(focusBalance)
	m.screen = screenForm
}

// syncInputs copies the controller's draft into the widgets.
func (m *Model) syncInputs() {
	d := m.coord.Form.Draft()
	m.balance.SetValue(d.Balance)
	m.date.SetValue(d.CreationDate)
	m.accountTyp = model.AccountType(d.Type)
	if !m.accountTyp.Valid() {
		m.accountTyp = model.DefaultAccountType
	}
}

func (m *Model) setFocus(f int) {
	m.focus = f
	m.balance.Blur()
	m.date.Blur()
	switch f {
	case focusBalance:
		m.balance.Focus()
	case focusDate:
		m.date.Focus()
	}
}

func (m *Model) clampCursor() {
	n := m.coord.List.State().Count()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected(st list.State) (model.ID, bool) {
	if st.View() != list.ViewTable || m.cursor >= len(st.Accounts) {
		return "", false
	}
	return st.Accounts[m.cursor].ID, true
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	switch m.screen {
	case screenForm:
		b.WriteString(m.viewForm())
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(formHelp))
	case screenConfirm:
		b.WriteString(m.styles.List(m.coord.List.State(), m.listOptions()))
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(list.ConfirmDeleteMessage))
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(confirmHelp))
	default:
		b.WriteString(m.styles.List(m.coord.List.State(), m.listOptions()))
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(listHelp))
	}
	if status := m.prompter.Status(); status != "" {
		b.WriteString("\n\n")
		b.WriteString(status)
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) listOptions() render.ListOptions {
	return render.ListOptions{Currency: m.currency, Cursor: m.cursor, RetryHint: retryHint}
}

func (m Model) viewForm() string {
	st := m.coord.Form.State()

	label := func(focus int, text string) string {
		if m.focus == focus {
			return m.styles.Selected.Render("> " + text)
		}
		return m.styles.Header.Render("  " + text)
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(st.Mode.Title()))
	b.WriteString("\n\n")
	b.WriteString(label(focusBalance, "Solde"))
	b.WriteString("\n    ")
	b.WriteString(m.balance.View())
	b.WriteString("\n")
	b.WriteString(label(focusDate, "Date de création"))
	b.WriteString("\n    ")
	b.WriteString(m.date.View())
	b.WriteString("\n")
	b.WriteString(label(focusType, "Type"))
	b.WriteString("\n    [")
	b.WriteString(m.accountTyp.Label())
	b.WriteString("]\n\n")

	submit := st.Mode.SubmitLabel()
	if st.Submitting || m.pending {
		submit = form.SubmittingLabel
	}
	b.WriteString(m.styles.Selected.Render("[ " + submit + " ]"))
	b.WriteString("\n")
	return b.String()
}
