package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the pictures in the vault",
	RunE:  runLs,
}

func init() {
	lsCmd.SilenceErrors = true
	lsCmd.SilenceUsage = true
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	m, err := openUnlocked()
	if err != nil {
		return err
	}

	n := m.Count()
	if n == 0 {
		fmt.Fprintln(os.Stderr, "The vault is empty")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTITLE\tFILE\tSIZE\tMODIFIED")
	for i := 0; i < n; i++ {
		info, ok := m.Get(i)
		if !ok {
			continue
		}
		size := "?"
		if info.Width > 0 && info.Height > 0 {
			size = fmt.Sprintf("%dx%d", info.Width, info.Height)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			i, info.Title, info.FileName, size,
			info.ModTime.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
