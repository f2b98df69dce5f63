// Command s3gate serves a bucket of an S3-compatible object store as a
// directory tree over an authenticated JSON API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/koustreak/s3gate/internal/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "s3gate",
	Short:   "Directory-style gateway for S3-compatible object stores",
	Long: `s3gate exposes one bucket of an S3-compatible object store (MinIO, AWS S3,
Ceph RGW, ...) as a browsable directory tree behind a token-authenticated
HTTP API. The backend connection can be reconfigured at runtime.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path; repeat to merge (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: S3GATE_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: json, console (env: S3GATE_LOG_FORMAT)")
}

// loadConfig resolves the configuration for cmd from files, env and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	files, err := cmd.Flags().GetStringSlice("config")
	if err != nil {
		return nil, err
	}
	return config.Load(files, cmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
