// Package cli implements the picvault command line interface.
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"Picvault/internal/config"
	"Picvault/internal/log"
)

// Version is set by main.go
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "picvault",
	Short: "Encrypted picture vault",
	Long: `picvault keeps a directory of pictures encrypted at rest:
  - RSA key pair stored in a password-protected key file
  - Argon2id for password-based key file protection
  - XChaCha20-Poly1305 for the picture containers
  - per-picture random file keys wrapped with RSA-OAEP
  - RSA-PSS signatures over every decrypted payload`,
	Version: Version,
}

var (
	rootConfig  string
	rootVerbose bool
)

// Execute runs the CLI application.
func Execute(version string) {
	Version = version
	rootCmd.Version = version

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted")
		closeSession()
		os.Exit(130)
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeSession()
		os.Exit(1)
	}
	closeSession()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&rootConfig, "config", "", "Config file path (default "+config.EnvConfigPath+" or ~/.picvault/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&rootVerbose, "verbose", false, "Enable debug logging")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootConfig)
	if err != nil {
		return nil, err
	}
	if rootVerbose || cfg.Verbose {
		log.EnableDebugLogging()
	}
	return cfg, nil
}
