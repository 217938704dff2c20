package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Delete a picture from the vault",
	Long: `Delete an encrypted picture without restoring the plaintext.
The picture is gone for good.`,
	RunE: runRm,
}

var (
	rmIndex int
	rmYes   bool
)

func init() {
	rmCmd.SilenceErrors = true
	rmCmd.SilenceUsage = true
	rootCmd.AddCommand(rmCmd)

	rmCmd.Flags().IntVarP(&rmIndex, "index", "i", -1, "Index of the picture to delete (see \"picvault ls\")")
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "Delete without prompting")
	_ = rmCmd.MarkFlagRequired("index")
}

func runRm(cmd *cobra.Command, args []string) error {
	m, err := openUnlocked()
	if err != nil {
		return err
	}

	info, ok := m.Get(rmIndex)
	if !ok {
		return fmt.Errorf("no picture at index %d", rmIndex)
	}
	if !rmYes && !confirmPrompt("Delete %q permanently?", info.Title) {
		return fmt.Errorf("operation cancelled")
	}
	if !m.RemoveAt(rmIndex) {
		return fmt.Errorf("no picture at index %d", rmIndex)
	}
	waitIdle(m)

	fmt.Fprintln(os.Stderr, "Deleted")
	return nil
}
