package list

import "github.com/comptes-dev/comptes/internal/model"

// View is what the list should display for a given state.
type View int

const (
	ViewLoading View = iota
	ViewError
	ViewEmpty
	ViewTable
)

func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewError:
		return "error"
	case ViewEmpty:
		return "empty"
	default:
		return "table"
	}
}

// State is a copy of the list controller's state.
type State struct {
	Accounts []model.Account
	Loading  bool
	Error    string
}

// View derives the display from the state: loading wins over error, error
// over empty.
func (s State) View() View {
	switch {
	case s.Loading:
		return ViewLoading
	case s.Error != "":
		return ViewError
	case len(s.Accounts) == 0:
		return ViewEmpty
	default:
		return ViewTable
	}
}

// Count is the number of accounts in the snapshot.
func (s State) Count() int {
	return len(s.Accounts)
}
