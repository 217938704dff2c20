package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"Picvault/internal/gallery"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the vault",
	RunE:  runStatus,
}

func init() {
	statusCmd.SilenceErrors = true
	statusCmd.SilenceUsage = true
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	m, err := openModel()
	if err != nil {
		return err
	}
	waitIdle(m)

	out := cmd.OutOrStdout()
	state := m.LockState()
	fmt.Fprintf(out, "State: %v\n", state)
	fmt.Fprintf(out, "Key available: %v\n", m.KeyAvailable())
	if state == gallery.Ready || state == gallery.KeyNotEncrypted {
		fmt.Fprintf(out, "Pictures: %d\n", m.Count())
	} else {
		fmt.Fprintf(out, "May hold encrypted pictures: %v\n", m.MayHaveEncryptedPictures())
	}
	return nil
}
