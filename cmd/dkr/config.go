// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"dkr-cli/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage dkr configuration",
	Long: `Manage dkr configuration.

Configuration is stored in:
  - Linux: ~/.config/dkr/config.cue
  - macOS: ~/Library/Application Support/dkr/config.cue
  - Windows: %APPDATA%\dkr\config.cue`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfig(); err != nil {
				return err
			}
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Println(SuccessStyle.Render("Config ready: ") +
				filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Println(filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print(config.GenerateCUE(appCfg))
			return nil
		},
	})
}

func showConfig(ctx context.Context) error {
	cfg, path, err := config.LoadWithPath(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return err
	}

	keyStyle := RefStyle
	valueStyle := SuccessStyle

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	if path != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	fmt.Printf("%s: %s\n", keyStyle.Render("container_engine"), valueStyle.Render(string(cfg.ContainerEngine)))
	fmt.Printf("%s: %s\n", keyStyle.Render("staleness_threshold"), valueStyle.Render(fmt.Sprintf("%d", cfg.StalenessThreshold)))
	fmt.Printf("%s: %s\n", keyStyle.Render("baseline_packages"), valueStyle.Render(strings.Join(cfg.BaselinePackages, " ")))
	fmt.Printf("%s: %s\n", keyStyle.Render("default_base_image"), valueStyle.Render(cfg.DefaultBaseImage))
	fmt.Printf("%s: %s\n", keyStyle.Render("host_addr"), valueStyle.Render(cfg.HostAddr))
	fmt.Printf("%s: %s\n", keyStyle.Render("ssh_key"), valueStyle.Render(cfg.SSHKey))
	fmt.Printf("%s: %s\n", keyStyle.Render("default_agent"), valueStyle.Render(string(cfg.DefaultAgent)))
	if cfg.AnthropicKeyFile != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("anthropic_key_file"), valueStyle.Render(cfg.AnthropicKeyFile))
	}

	return nil
}
