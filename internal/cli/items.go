package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/assetdesk/assetdesk/internal/importer"
	"github.com/assetdesk/assetdesk/internal/inventory"
	"github.com/assetdesk/assetdesk/internal/palette"
	tbl "github.com/assetdesk/assetdesk/internal/table"
)

var sortFields = []string{
	inventory.FieldName,
	inventory.FieldCategory,
	inventory.FieldSerial1,
	inventory.FieldSerial2,
	inventory.FieldSerial3,
	inventory.FieldOwner,
	inventory.FieldLocation,
	inventory.FieldStatus,
	inventory.FieldCreatedAt,
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Item commands",
	}

	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsImportCmd(app))
	cmd.AddCommand(newItemsDeleteCmd(app))

	return cmd
}

func newItemsListCmd(app *App) *cobra.Command {
	var search string
	var sortField string
	var reverse bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items with their owners",
		Example: strings.TrimSpace(`
assetdesk items list --search "GD-" --sort owner
assetdesk items list --sort created_at --reverse
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sortField != "" && !slices.Contains(sortFields, sortField) {
				return fmt.Errorf("unknown sort field %q (want one of %s)", sortField, strings.Join(sortFields, ", "))
			}
			c, err := app.authorizedClient()
			if err != nil {
				return err
			}

			state := inventory.NewLoader(c, inventory.WithLogger(app.log())).Load(cmd.Context())
			if state.Error != "" {
				return errors.New(state.Error)
			}

			sorter := tbl.NewSorter(app.Config.Locale)
			rows := tbl.SortWith(sorter, state.Items, sortField, reverse, search)
			renderItems(cmd.OutOrStdout(), rows, len(state.Items))
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show items with a field containing this text")
	cmd.Flags().StringVar(&sortField, "sort", "", "Sort by field: "+strings.Join(sortFields, ", "))
	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "Reverse the sort order")

	return cmd
}

func renderItems(w io.Writer, rows []inventory.ViewItem, total int) {
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No items found."))
		return
	}

	data := make([][]string, len(rows))
	for i, r := range rows {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = humanize.Time(r.CreatedAt)
		}
		data[i] = []string{
			r.Name,
			r.Category,
			serials(r),
			r.Owner,
			r.Location,
			r.Status,
			created,
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("NAME", "CATEGORY", "SERIAL NUMBERS", "OWNER", "LOCATION", "STATUS", "CREATED").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1:
				return cellStyle.Foreground(lipgloss.Color(palette.CategoryColor(rows[row].Category).Hex))
			case col == 3 && rows[row].Owner == inventory.UnknownOwner:
				return cellStyle.Inherit(mutedStyle)
			}
			return cellStyle
		})

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d of %d items", len(rows), total)))
}

func serials(r inventory.ViewItem) string {
	var parts []string
	for _, s := range []string{r.SerialNumber1, r.SerialNumber2, r.SerialNumber3} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func newItemsImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import items from a CSV or XLSX file",
		Long: strings.TrimSpace(`
Import items from a CSV or XLSX file.

The first row names the columns. name, category and serial_number_1 are
required; serial_number_2, serial_number_3, owner (email or id) and location
are optional. Every data row is created on its own; rejected rows are listed
with their spreadsheet row number.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			name := filepath.Base(path)

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return err
			}
			contentType := importer.ContentType(name)
			if err := importer.CheckUpload(name, contentType, info.Size()); err != nil {
				return err
			}

			c, err := app.authorizedClient()
			if err != nil {
				return err
			}
			result, err := c.ImportItems(cmd.Context(), name, contentType, f)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			out := cmd.OutOrStdout()
			notice := inventory.ImportNotice(*result)
			fmt.Fprintf(out, "%s: %s\n", notice.Title, notice.Message)
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  row %d: %s\n", e.Row, e.Message)
			}
			app.log().Info("items imported", "file", name, "size", humanize.IBytes(uint64(info.Size())),
				"created", len(result.Created), "failed", len(result.Errors))
			return nil
		},
	}

	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.authorizedClient()
			if err != nil {
				return err
			}

			var errs []error
			for _, id := range args {
				if err := c.DeleteItem(cmd.Context(), id); err != nil {
					errs = append(errs, fmt.Errorf("deleting %s: %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			return errors.Join(errs...)
		},
	}

	return cmd
}
