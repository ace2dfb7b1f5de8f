// Package main implements navigatorctl, an operator CLI for the analysis backend.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ashureev/startup-navigator/internal/backend"
)

var (
	// Global flags
	apiURL        string
	submitTimeout time.Duration
	healthTimeout time.Duration
	verbose       bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "navigatorctl",
	Short: "Check the analysis backend and build or send analysis requests",
	Long: `navigatorctl talks to the same analysis backend as the navigator server.

Form files are YAML documents using the wizard's field names, for example:

  age: "34"
  gender: F
  mbti: ENFP
  industryCategory: 카페/디저트
  selectedDistricts: [마포구]
  budgetAmount: 80000000`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	_ = godotenv.Load()

	defaultURL := os.Getenv("API_URL")
	if defaultURL == "" {
		defaultURL = backend.DefaultBaseURL
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "Analysis backend base URL (env API_URL)")
	rootCmd.PersistentFlags().DurationVar(&submitTimeout, "timeout", backend.DefaultSubmitTimeout, "Submission timeout")
	rootCmd.PersistentFlags().DurationVar(&healthTimeout, "health-timeout", backend.DefaultHealthTimeout, "Health check timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(healthCmd, requestCmd, validateCmd, submitCmd)
}

func newClient() *backend.Client {
	return backend.NewClient(backend.Config{
		BaseURL:       apiURL,
		SubmitTimeout: submitTimeout,
		HealthTimeout: healthTimeout,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
