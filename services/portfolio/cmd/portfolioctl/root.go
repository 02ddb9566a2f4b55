package main

import (
	"fmt"

	"darkwave/services/portfolio/internal/app"
	"darkwave/services/portfolio/internal/config"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	configPath string

	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle = lipgloss.NewStyle().Bold(true)
)

var rootCmd = &cobra.Command{
	Use:          "portfolioctl",
	Short:        "Maintenance commands for the portfolio service",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "path to config.yaml")
	rootCmd.AddCommand(hashPasswordCmd, probeCmd, cacheCmd, eventsCmd)
}

func loadAppConfig() (app.Config, error) {
	fc, err := config.Load(configPath)
	if err != nil {
		return app.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return app.ConfigFromFile(fc)
}
