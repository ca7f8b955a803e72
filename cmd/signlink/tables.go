package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/ayusman/signlink/internal/app"
	"github.com/ayusman/signlink/internal/config"
	"github.com/ayusman/signlink/internal/gesture"
	"github.com/ayusman/signlink/internal/store"
)

func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List mapping tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := allTables()
			if err != nil {
				return err
			}
			return listTables(cmd.OutOrStdout(), tables)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print a mapping table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := allTables()
			if err != nil {
				return err
			}
			t, err := tables.Get(args[0])
			if err != nil {
				return err
			}
			r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
			if err != nil {
				return err
			}
			out, err := r.Render(tableMarkdown(t))
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	})
	return cmd
}

func newClassifyCmd() *cobra.Command {
	var table string
	cmd := &cobra.Command{
		Use:   "classify <label>...",
		Short: "Classify hand pose labels with a mapping table",
		Example: "  signlink classify Thumb_Up\n" +
			"  signlink classify --table en-stop Open_Palm Open_Palm",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := allTables()
			if err != nil {
				return err
			}
			if table == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				table = cfg.Gesture.Table
			}
			t, err := tables.Get(table)
			if err != nil {
				return err
			}
			tok := gesture.NewClassifier(t).Classify(args)
			if tok.IsEmpty() {
				tok = gesture.NoGestureMarker
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVarP(&table, "table", "t", "", "mapping table (default from config)")
	return cmd
}

// allTables returns the built-in tables, any from the configured tables
// directory, and those saved in the data directory's store.
func allTables() (*gesture.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	tables, err := loadTables(cfg)
	if err != nil {
		return nil, err
	}
	if err := addStoredTables(cfg, tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func addStoredTables(cfg config.Config, tables *gesture.Registry) error {
	path := filepath.Join(cfg.DataDir, "signlink.db")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	st, err := store.New(path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	stored, err := st.Tables().List()
	if err != nil {
		return err
	}
	for _, s := range stored {
		t, err := app.TableFromStore(s)
		if err != nil {
			return fmt.Errorf("table %s: %w", s.Name, err)
		}
		tables.Register(t)
	}
	return nil
}

func listTables(w io.Writer, tables *gesture.Registry) error {
	for _, name := range tables.Names() {
		t, err := tables.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-12s %-6s %3d  %s\n", t.Name(), t.Locale(), t.Len(), t.Description())
	}
	return nil
}

func tableMarkdown(t *gesture.MappingTable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Name())
	if t.Description() != "" {
		fmt.Fprintf(&b, "%s\n\n", t.Description())
	}
	fmt.Fprintf(&b, "Locale: `%s`\n\n", t.Locale())
	b.WriteString("| Hands | Word |\n|---|---|\n")
	for _, e := range t.Entries() {
		fmt.Fprintf(&b, "| %s | %s |\n", strings.Join(e.Hands, " + "), e.Token)
	}
	return b.String()
}
