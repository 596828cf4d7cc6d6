/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"chatflow/internal/chatflow/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration and credentials",
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration file",
	Long: `Initialize the configuration file with default settings.
The config file will be created at $HOME/.config/chatflow/config.toml by default.
You can specify a different location using the --config option.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %v", err)
		}

		configFile := filepath.Join(home, ".config", "chatflow", "config.toml")
		if cfgFile != "" {
			configFile = cfgFile
		}

		configDir := filepath.Dir(configFile)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %v", err)
		}

		if _, err := os.Stat(configFile); err == nil {
			return fmt.Errorf("config file already exists at: %s", configFile)
		}

		cfg := config.NewDefaultConfig(configDir)

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("failed to create config file: %v", err)
		}
		defer f.Close()

		encoder := toml.NewEncoder(f)
		if err := encoder.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %v", err)
		}

		fmt.Printf("Created config file: %s\n", configFile)
		return nil
	},
}

// configSetKeyCmd represents the config set-key command
var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [api-key]",
	Short: "Store the API key",
	Long: `Store the bearer credential used to authenticate against the API.
The key is written to the local blob store alongside the session history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, cleanup, err := buildStore()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := st.SetAPIKey(args[0]); err != nil {
			return fmt.Errorf("storing api key: %w", err)
		}
		fmt.Println("API key stored.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetKeyCmd)
}
