/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chatflow/internal/chatflow/config"
	"chatflow/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chatflow",
	Short: "A streaming chat client with local conversation history",
	Long: `chatflow is a command-line client for OpenAI-compatible chat and image
generation APIs. Assistant replies render incrementally as they stream in,
and every conversation is persisted locally across multiple sessions.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/chatflow/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("CHATFLOW")
	viper.AutomaticEnv()

	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	userConfigDir := filepath.Join(home, ".config", "chatflow")

	defaultConfig := config.NewDefaultConfig(userConfigDir)
	viper.SetDefault("base_url", defaultConfig.BaseURL)
	viper.SetDefault("token", defaultConfig.Token)
	viper.SetDefault("model", defaultConfig.Model)
	viper.SetDefault("temperature", defaultConfig.Temperature)
	viper.SetDefault("image_model", defaultConfig.ImageModel)
	viper.SetDefault("image_size", defaultConfig.ImageSize)
	viper.SetDefault("storage", defaultConfig.Storage)
	viper.SetDefault("state_dir", defaultConfig.StateDir)
	viper.SetDefault("prompt_dir", defaultConfig.PromptDir)

	viper.BindEnv("base_url", "CHATFLOW_BASE_URL")
	viper.BindEnv("token", "CHATFLOW_TOKEN")
	viper.BindEnv("model", "CHATFLOW_MODEL")
	viper.BindEnv("state_dir", "CHATFLOW_STATE_DIR")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(userConfigDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	}

	if verbose {
		logging.SetLevel(slog.LevelDebug)
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
