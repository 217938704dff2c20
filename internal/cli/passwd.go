package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"Picvault/internal/gallery"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the key file password",
	RunE:  runPasswd,
}

func init() {
	passwdCmd.SilenceErrors = true
	passwdCmd.SilenceUsage = true
	rootCmd.AddCommand(passwdCmd)
}

func runPasswd(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("key file is not password protected; generate it with a password to protect it")
	}

	oldPassword, err := readPasswordSecure("Current password: ")
	if err != nil {
		return err
	}
	if !m.CheckPassword(oldPassword) {
		return fmt.Errorf("wrong password")
	}
	newPassword, err := readPasswordConfirmed("New password: ")
	if err != nil {
		return err
	}
	if newPassword == "" {
		return fmt.Errorf("new password cannot be empty")
	}
	warnWeakPassword(newPassword)
	if !m.ChangePassword(oldPassword, newPassword) {
		return fmt.Errorf("password change failed")
	}
	fmt.Fprintln(os.Stderr, "Password changed")
	return nil
}
