package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/Picocrypt/zxcvbn-go"
	"golang.org/x/term"
)

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// isTerminal returns true if stdin is a terminal (not piped/redirected).
func isTerminal() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// readPasswordSecure reads a password from stdin without echo.
// Falls back to buffered read if stdin is not a terminal.
func readPasswordSecure(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	if !isTerminal() {
		// stdin is piped; read normally
		reader := bufio.NewReader(os.Stdin)
		pw, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		pw = strings.TrimSuffix(pw, "\n")
		pw = strings.TrimSuffix(pw, "\r")
		return pw, nil
	}

	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// readPasswordConfirmed prompts for a password twice. An empty password
// is allowed; it means the key file is stored unprotected.
func readPasswordConfirmed(prompt string) (string, error) {
	password, err := readPasswordSecure(prompt)
	if err != nil {
		return "", err
	}
	confirm, err := readPasswordSecure("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", ErrPasswordMismatch
	}
	return password, nil
}

// passwordScore rates a password from 0 (trivially guessable) to 4.
func passwordScore(password string) int {
	if password == "" {
		return 0
	}
	return zxcvbn.PasswordStrength(password, nil).Score
}

// warnWeakPassword prints a strength warning for a freshly chosen
// password. Weak passwords are allowed; the choice is the user's.
func warnWeakPassword(password string) {
	if password == "" {
		return
	}
	if score := passwordScore(password); score < 3 {
		fmt.Fprintf(os.Stderr, "Warning: weak password (strength %d/4)\n", score)
	}
}

// confirmPrompt asks a yes/no question on stderr, default no.
func confirmPrompt(format string, args ...any) bool {
	fmt.Fprintf(os.Stderr, format+" [y/N]: ", args...)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
