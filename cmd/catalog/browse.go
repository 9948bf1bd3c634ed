package main

import (
	"io"

	"github.com/Sternrassler/catalog-viewer/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newBrowseCmd(root *rootOptions) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive catalog browser",
		Long: `Open a terminal UI with a dashboard and a products screen. The products
screen loads the catalog when opened; type / to search, n/p to page,
s to change the page size and r to reload.

Logs are discarded unless --log-file (or CATALOG_LOG_FILE) is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides := root.overrides(cmd)
			if cmd.Flags().Changed("log-file") {
				overrides["log.file"] = logFile
			}

			a, err := setupApp(cmd.Context(), root, overrides, io.Discard)
			if err != nil {
				return err
			}
			defer a.Close()

			stopMetrics, err := a.serveMetrics(cmd.Context())
			if err != nil {
				return err
			}
			defer stopMetrics()

			return tui.Run(cmd.Context(), a.newState,
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file")

	return cmd
}
