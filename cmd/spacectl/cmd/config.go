package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configShowOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Client configuration management",
	Long:  `Commands for inspecting and bootstrapping the spacectl client configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective client configuration",
	Long: `Prints the configuration spacectl resolved from flags, environment
variables and the config file, with the API key masked.`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long:  `Writes the current server URL, company ID and API key to $HOME/.spacectl/config.yaml.`,
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configShowCmd.Flags().StringVarP(&configShowOutput, "format", "f", "text",
		"Output format: text, json, yaml")
}

// ClientConfig is the on-disk shape of the spacectl config file.
type ClientConfig struct {
	ServerURL string `json:"server_url" yaml:"server_url"`
	CompanyID string `json:"company_id,omitempty" yaml:"company_id,omitempty"`
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := ClientConfig{
		ServerURL: GetServerURL(),
		CompanyID: companyID,
		APIKey:    maskKey(apiKey),
	}

	switch configShowOutput {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)

	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(cfg)

	default: // text
		fmt.Println("Client Configuration:")
		fmt.Printf("  Server:  %s\n", cfg.ServerURL)
		fmt.Printf("  Company: %s\n", valueOrUnset(cfg.CompanyID))
		fmt.Printf("  API Key: %s\n", valueOrUnset(cfg.APIKey))
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Printf("  File:    %s\n", used)
		}
		return nil
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to find home directory: %w", err)
	}
	dir := filepath.Join(home, ".spacectl")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := ClientConfig{
		ServerURL: GetServerURL(),
		CompanyID: companyID,
		APIKey:    apiKey,
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	// Keys live in this file, so keep it owner-readable only
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		if key == "" {
			return ""
		}
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

func valueOrUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}
