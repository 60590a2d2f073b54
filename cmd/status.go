package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/personafin/personafin/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show personafin status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Printf("%s personafin Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:    %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	keyMark := "(not set)"
	if cfg.Provider.APIKey != "" {
		keyMark = "✓"
	}
	fmt.Printf("API key:   %s\n", keyMark)
	fmt.Printf("Model:     %s\n", cfg.Model)
	fmt.Printf("Frequency: %.2f\n\n", cfg.ResponseFrequency)

	fmt.Println("Channels:")
	printChannel("telegram", cfg.Channels.Telegram.Enabled, cfg.Channels.Telegram.Token != "")
	printChannel("slack", cfg.Channels.Slack.Enabled, cfg.Channels.Slack.BotToken != "" && cfg.Channels.Slack.AppToken != "")
	printChannel("bridge", cfg.Channels.Bridge.Enabled, cfg.Channels.Bridge.URL != "")

	fmt.Printf("\nAuto-summarize: %v (threshold %d, batch %d)\n",
		cfg.AutoSummarize.Enabled, cfg.AutoSummarize.Threshold, cfg.AutoSummarize.BatchSize)
	return nil
}

func printChannel(name string, enabled, configured bool) {
	switch {
	case enabled && configured:
		fmt.Printf("  %-10s ✓\n", name)
	case enabled:
		fmt.Printf("  %-10s enabled but not configured\n", name)
	default:
		fmt.Printf("  %-10s (disabled)\n", name)
	}
}
