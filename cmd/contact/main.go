package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gatezh/contactform/pkg/contactcli"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	outputFormat string
	serverURL    string
	originFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "contact",
	Short: "Contact form CLI - Send and preview contact form submissions",
	Long: `contact is a command-line tool for sending submissions to a contact form
endpoint and previewing the notification email it produces.

Get started:
  contact config set server https://contact.example.com
  contact submit                 Write a message in your editor
  contact preview --open         Render the notification email locally

Enable shell completion:
  contact completion bash    Generate bash completion
  contact completion zsh     Generate zsh completion`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Contact endpoint URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&originFlag, "origin", "", "Origin header to send (overrides config)")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("contact version %s\n", Version)
	},
}

// getFormatter creates a formatter based on the global output flag
func getFormatter() (*contactcli.Formatter, error) {
	format, err := contactcli.ParseOutputFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return contactcli.NewFormatter(format), nil
}

// getClient creates an endpoint client, applying the server and origin overrides
func getClient() (*contactcli.Client, error) {
	cfg, err := contactcli.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if serverURL != "" {
		if err := cfg.SetConfigValue(string(contactcli.ConfigKeyServer), serverURL); err != nil {
			return nil, err
		}
	}
	if originFlag != "" {
		if err := cfg.SetConfigValue(string(contactcli.ConfigKeyOrigin), originFlag); err != nil {
			return nil, err
		}
	}

	return contactcli.NewClientWithConfig(cfg), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
