package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Sternrassler/catalog-viewer/pkg/catalog"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var (
		search   string
		page     int
		pageSize int
		total    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of the catalog as a table",
		Example: `  catalog list
  catalog list --search nike --page-size 50
  catalog list --page 3 --total 200`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides := root.overrides(cmd)
			if cmd.Flags().Changed("page-size") {
				if _, err := catalog.ParsePageSize(strconv.Itoa(pageSize)); err != nil {
					return err
				}
				overrides["view.page_size"] = pageSize
			}
			if cmd.Flags().Changed("total") {
				overrides["fetch.total"] = total
			}

			a, err := setupApp(cmd.Context(), root, overrides, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			stopMetrics, err := a.serveMetrics(cmd.Context())
			if err != nil {
				return err
			}
			defer stopMetrics()

			state := a.newState()
			defer state.Close()

			if err := state.Load(cmd.Context()); err != nil {
				return err
			}
			state.SetSearchTerm(search)
			state.GoToPage(page)

			renderList(cmd.OutOrStdout(), state.View())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&search, "search", "", "case-insensitive filter on title, brand and category")
	flags.IntVar(&page, "page", 1, "page number (clamped into range)")
	flags.IntVar(&pageSize, "page-size", int(catalog.DefaultPageSize), "rows per page (25, 50 or 100)")
	flags.IntVar(&total, "total", catalog.DefaultLoadTarget, "number of products to load")

	return cmd
}

var (
	listHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	listCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	listPriceStyle  = listCellStyle.Align(lipgloss.Right)
)

// renderList prints the visible page followed by a pagination line.
func renderList(w io.Writer, view catalog.View) {
	if len(view.Products) == 0 {
		fmt.Fprintln(w, "No products found")
	} else {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("ID", "Title", "Brand", "Category", "Price").
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return listHeaderStyle
				case col == 4:
					return listPriceStyle
				default:
					return listCellStyle
				}
			})
		for _, p := range view.Products {
			t.Row(strconv.Itoa(p.ID), p.Title, p.Brand, p.Category, p.DisplayPrice())
		}
		fmt.Fprintln(w, t.Render())
	}

	summary := fmt.Sprintf("Page %d of %d", view.PageNumber, view.TotalPages)
	if view.SearchTerm != "" {
		summary += fmt.Sprintf(" • %d of %d products match %q", view.Matches, view.CatalogSize, view.SearchTerm)
	} else {
		summary += fmt.Sprintf(" • %d products", view.CatalogSize)
	}
	fmt.Fprintln(w, summary)
}
