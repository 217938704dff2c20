package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"Picvault/internal/gallery"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a new key",
	Long: `Generate a new key pair and key file for the vault.

The key file is protected with a password (prompted, or empty for an
unprotected key file). Generating a new key makes any pictures encrypted
with a previous key permanently unreadable; the command refuses to do
that without --force when such pictures are detected.`,
	RunE: runInit,
}

var (
	initBits          int
	initPassword      string
	initPasswordStdin bool
	initForce         bool
)

func init() {
	initCmd.SilenceErrors = true
	initCmd.SilenceUsage = true
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().IntVarP(&initBits, "bits", "b", 0, "Key strength in bits (default 2048, minimum 2048)")
	initCmd.Flags().StringVarP(&initPassword, "password", "p", "", "Key file password (visible in shell history)")
	initCmd.Flags().BoolVarP(&initPasswordStdin, "password-stdin", "P", false, "Read password from stdin")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Replace an existing key even if encrypted pictures would be orphaned")
}

func runInit(cmd *cobra.Command, args []string) error {
	m, err := openModel()
	if err != nil {
		return err
	}
	waitIdle(m)

	if !initForce {
		if m.LockState() != gallery.NoKey {
			if !confirmPrompt("A key file already exists. Replace it?") {
				return fmt.Errorf("operation cancelled")
			}
		}
		if m.MayHaveEncryptedPictures() {
			if !confirmPrompt("The vault seems to hold encrypted pictures; a new key makes them unreadable forever. Continue?") {
				return fmt.Errorf("operation cancelled")
			}
		}
	}

	password := initPassword
	if initPasswordStdin {
		password, err = readPasswordSecure("")
		if err != nil {
			return err
		}
	} else if password == "" && isTerminal() {
		password, err = readPasswordConfirmed("New key password (empty for none): ")
		if err != nil {
			return err
		}
	}
	warnWeakPassword(password)

	fmt.Fprintln(os.Stderr, "Generating key...")
	m.GenerateKey(password, initBits)
	waitIdle(m)

	switch m.LockState() {
	case gallery.Ready:
		fmt.Fprintln(os.Stderr, "Key generated")
		return nil
	case gallery.KeyNotEncrypted:
		fmt.Fprintln(os.Stderr, "Key generated (key file is not password protected)")
		return nil
	default:
		return fmt.Errorf("key generation failed")
	}
}
