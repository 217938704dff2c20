package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add FILE...",
	Short: "Encrypt pictures into the vault",
	Long: `Encrypt one or more picture files into the vault.

Each source file is replaced by an encrypted container (plus a thumbnail
container) in the vault directory and then deleted.

Examples:
  picvault add holiday.jpg
  picvault add --title "Sunset" --orientation 90 sunset.jpg
  picvault add ~/Pictures/*.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addTitle       string
	addOrientation int
)

func init() {
	addCmd.SilenceErrors = true
	addCmd.SilenceUsage = true
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Title stored with the picture (single file only)")
	addCmd.Flags().IntVar(&addOrientation, "orientation", 0, "Rotation in degrees baked into the thumbnail")
}

func runAdd(cmd *cobra.Command, args []string) error {
	if addTitle != "" && len(args) > 1 {
		return fmt.Errorf("--title applies to a single file")
	}

	var files []string
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("cannot resolve %s: %w", arg, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("cannot access %s: %w", arg, err)
		}
		files = append(files, abs)
	}

	m, err := openUnlocked()
	if err != nil {
		return err
	}

	before := m.Count()
	for _, f := range files {
		if err := m.EncryptFile(f, addTitle, addOrientation); err != nil {
			return fmt.Errorf("cannot encrypt %s: %w", f, err)
		}
	}
	waitIdle(m)

	added := m.Count() - before
	if added < len(files) {
		return fmt.Errorf("encrypted %d of %d file(s)", added, len(files))
	}
	fmt.Fprintf(os.Stderr, "Encrypted %d file(s)\n", added)
	return nil
}
