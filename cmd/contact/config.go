package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatezh/contactform/pkg/contactcli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `View and modify CLI configuration settings.

Configuration is stored in ~/.config/contact/config.yaml (or $XDG_CONFIG_HOME/contact/config.yaml).

Available configuration keys:
  server  Contact endpoint URL (default: ` + contactcli.DefaultServer + `)
  origin  Origin header sent with each request, for endpoints with an origin allow-list`,
	Example: `  contact config list
  contact config get server
  contact config set server https://contact.example.com
  contact config set origin https://example.com`,
}

var configGetCmd = &cobra.Command{
	Use:               "get <key>",
	Short:             "Get a configuration value",
	Args:              cobra.ExactArgs(1),
	RunE:              runConfigGet,
	ValidArgsFunction: completeConfigKeys,
}

var configSetCmd = &cobra.Command{
	Use:               "set <key> <value>",
	Short:             "Set a configuration value",
	Long:              `Set a configuration key. Pass an empty value to clear origin.`,
	Args:              cobra.ExactArgs(2),
	RunE:              runConfigSet,
	ValidArgsFunction: completeConfigKeysAndValues,
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all configuration values",
	Args:    cobra.NoArgs,
	RunE:    runConfigList,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPathCmd)
}

func checkConfigKey(key string) error {
	if contactcli.IsValidConfigKey(key) {
		return nil
	}
	keys := make([]string, 0, len(contactcli.ValidConfigKeys()))
	for _, k := range contactcli.ValidConfigKeys() {
		keys = append(keys, string(k))
	}
	return fmt.Errorf("unknown config key: %s\nValid keys: %s", key, strings.Join(keys, ", "))
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if err := checkConfigKey(args[0]); err != nil {
		return err
	}

	cfg, err := contactcli.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value, err := cfg.GetConfigValue(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if err := checkConfigKey(key); err != nil {
		return err
	}

	cfg, err := contactcli.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.SetConfigValue(key, value); err != nil {
		return err
	}

	if err := contactcli.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
	return nil
}

func runConfigList(cmd *cobra.Command, args []string) error {
	cfg, err := contactcli.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, key := range contactcli.ValidConfigKeys() {
		value, _ := cfg.GetConfigValue(string(key))
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := contactcli.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func filterPrefix(values []string, prefix string) []string {
	var out []string
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	return out
}

// completeConfigKeys provides tab completion for config keys
func completeConfigKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var keys []string
	for _, key := range contactcli.ValidConfigKeys() {
		keys = append(keys, string(key))
	}
	return filterPrefix(keys, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeConfigKeysAndValues provides tab completion for config set
func completeConfigKeysAndValues(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return completeConfigKeys(cmd, args, toComplete)
	case 1:
		if contactcli.ConfigKey(args[0]) == contactcli.ConfigKeyServer {
			return filterPrefix([]string{contactcli.DefaultServer}, toComplete), cobra.ShellCompDirectiveNoFileComp
		}
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
