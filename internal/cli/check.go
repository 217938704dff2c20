package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"Picvault/internal/gallery"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a key file password",
	Long: `Check whether a password opens the key file, without unlocking
anything. Exits zero when the password is correct.`,
	RunE: runCheck,
}

func init() {
	checkCmd.SilenceErrors = true
	checkCmd.SilenceUsage = true
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	m, err := openModel()
	if err != nil {
		return err
	}
	waitIdle(m)

	switch m.LockState() {
	case gallery.NoKey:
		return fmt.Errorf("no key file; run \"picvault init\" first")
	case gallery.KeyInvalid, gallery.KeyError:
		return fmt.Errorf("key file is not usable")
	case gallery.KeyNotEncrypted:
		return fmt.Errorf("key file is not password protected")
	}

	password, err := readPasswordSecure("Password: ")
	if err != nil {
		return err
	}
	if !m.CheckPassword(password) {
		return fmt.Errorf("wrong password")
	}
	fmt.Fprintln(os.Stderr, "Password is correct")
	return nil
}
