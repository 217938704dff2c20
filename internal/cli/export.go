package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Decrypt pictures back to their original location",
	Long: `Decrypt pictures back to the paths they were added from.

Each exported picture is removed from the vault; its original
modification and access times are restored.

Examples:
  picvault export --index 2
  picvault export --all`,
	RunE: runExport,
}

var (
	exportIndex int
	exportAll   bool
)

func init() {
	exportCmd.SilenceErrors = true
	exportCmd.SilenceUsage = true
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().IntVarP(&exportIndex, "index", "i", -1, "Index of the picture to export (see \"picvault ls\")")
	exportCmd.Flags().BoolVarP(&exportAll, "all", "a", false, "Export every picture")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportAll == (exportIndex >= 0) {
		return fmt.Errorf("exactly one of --all or --index is required")
	}

	m, err := openUnlocked()
	if err != nil {
		return err
	}

	before := m.Count()
	if exportAll {
		m.DecryptAll()
	} else {
		if !m.DecryptAt(exportIndex) {
			return fmt.Errorf("no picture at index %d", exportIndex)
		}
	}
	waitIdle(m)

	exported := before - m.Count()
	want := 1
	if exportAll {
		want = before
	}
	if exported < want {
		return fmt.Errorf("exported %d of %d picture(s)", exported, want)
	}
	fmt.Fprintf(os.Stderr, "Exported %d picture(s)\n", exported)
	return nil
}
