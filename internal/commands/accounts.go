package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/comptes-dev/comptes/internal/form"
	"github.com/comptes-dev/comptes/internal/model"
	"github.com/comptes-dev/comptes/internal/prompt"
	"github.com/comptes-dev/comptes/internal/render"
)

const cliRetryHint = "Relancez la commande une fois le serveur démarré."

func newListCommand(g *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all comptes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			s, err := g.newSession(cmd, terminal(cmd))
			if err != nil {
				return err
			}
			defer s.close()

			loadErr := s.coord.Mount(cmd.Context())
			st := s.coord.List.State()
			out := cmd.OutOrStdout()

			switch {
			case loadErr != nil || f == render.FormatTable:
				opts := render.ListOptions{Currency: s.cfg.Display.Currency, Cursor: -1, RetryHint: cliRetryHint}
				if err := render.WriteList(out, st, opts); err != nil {
					return err
				}
			case f == render.FormatCSV:
				if err := render.WriteAccounts(out, st.Accounts); err != nil {
					return err
				}
			case f == render.FormatJSON:
				if err := render.WriteJSON(out, st.Accounts); err != nil {
					return err
				}
			}
			return loadErr
		},
	}

	cmd.Flags().StringVar(&format, "format", string(render.FormatTable), "output format: table, csv or json")

	return cmd
}

// draftFlags are the editable fields as command flags.
type draftFlags struct {
	solde       string
	date        string
	accountType string
}

func (d *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.solde, "solde", "", "balance, e.g. 1500.50")
	cmd.Flags().StringVar(&d.date, "date", "", "creation date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&d.accountType, "type", string(model.DefaultAccountType), "account type: COURANT or EPARGNE")
}

// apply copies the flags the user set, or all of them when all is true,
// into the form draft.
func (d *draftFlags) apply(cmd *cobra.Command, f *form.Controller, all bool) error {
	values := map[form.Field]struct {
		flag  string
		value string
	}{
		form.FieldBalance:      {"solde", d.solde},
		form.FieldCreationDate: {"date", d.date},
		form.FieldType:         {"type", d.accountType},
	}
	for _, field := range form.Fields {
		v := values[field]
		if !all && !cmd.Flags().Changed(v.flag) {
			continue
		}
		if err := f.UpdateField(field, v.value); err != nil {
			return err
		}
	}
	return nil
}

func newCreateCommand(g *globalFlags) *cobra.Command {
	var d draftFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a compte",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.newSession(cmd, terminal(cmd))
			if err != nil {
				return err
			}
			defer s.close()

			if err := d.apply(cmd, s.coord.Form, true); err != nil {
				return err
			}
			return s.coord.Submit(cmd.Context())
		},
	}

	d.register(cmd)

	return cmd
}

func newEditCommand(g *globalFlags) *cobra.Command {
	var d draftFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a compte; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.newSession(cmd, terminal(cmd))
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.coord.Mount(cmd.Context()); err != nil {
				return err
			}
			if err := s.coord.Edit(model.ID(args[0])); err != nil {
				return err
			}
			if err := d.apply(cmd, s.coord.Form, false); err != nil {
				return err
			}
			return s.coord.Submit(cmd.Context())
		},
	}

	d.register(cmd)

	return cmd
}

func newDeleteCommand(g *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a compte after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p prompt.Prompter = terminal(cmd)
			if yes {
				p = prompt.AutoConfirm{Notifier: p}
			}

			s, err := g.newSession(cmd, p)
			if err != nil {
				return err
			}
			defer s.close()

			deleted, err := s.coord.Delete(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintln(cmd.OutOrStdout(), "Suppression annulée")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func newImportCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Create one compte per row of a CSV file (id,solde,dateCreation,type)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import file: %w", err)
			}
			defer f.Close()

			s, err := g.newSession(cmd, terminal(cmd))
			if err != nil {
				return err
			}
			defer s.close()

			imported, err := importRows(cmd, s, render.NewRowReader(f))
			fmt.Fprintf(cmd.OutOrStdout(), "%d compte(s) importé(s)\n", imported)
			return err
		},
	}
}

// importRows submits rows until the file ends or a row fails to parse or
// save. Rows before the failing one stay created.
func importRows(cmd *cobra.Command, s *session, rows *render.RowReader) (int, error) {
	imported := 0
	for {
		rec, err := rows.Next()
		if errors.Is(err, io.EOF) {
			return imported, nil
		}
		if err != nil {
			return imported, err
		}
		if err := importRow(cmd, s, rec); err != nil {
			return imported, fmt.Errorf("row %d: %w", rows.Row(), err)
		}
		imported++
	}
}

// importRow submits one CSV row through the form, so it is validated and
// announced like a manual create. The id column is ignored.
func importRow(cmd *cobra.Command, s *session, rec []string) error {
	s.coord.Cancel()
	d := draftFlags{
		solde:       render.Field(rec, "solde"),
		date:        render.Field(rec, "dateCreation"),
		accountType: render.Field(rec, "type"),
	}
	if d.accountType == "" {
		d.accountType = string(model.DefaultAccountType)
	}
	if err := d.apply(cmd, s.coord.Form, true); err != nil {
		return err
	}
	return s.coord.Submit(cmd.Context())
}
