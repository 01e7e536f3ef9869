package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iishyfishyy/guestdist/internal/config"
	"github.com/iishyfishyy/guestdist/internal/ui"
)

func runConfigure(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("configure needs an interactive terminal")
	}

	ui.ShowSection("Guestdist Configuration")

	cfg, err := config.Load(configPath)
	if err != nil {
		ui.ShowWarning(fmt.Sprintf("Existing configuration could not be loaded (%v); starting from defaults", err))
		cfg = config.Default()
	}

	path := configPath
	if path == "" {
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}

	for {
		displayConfig(cfg, path)

		options := []string{
			"Data source",
			"HTTP server",
			"Ranking parallelism",
			"Rank history",
			"Save and exit",
			"Exit without saving",
		}

		selected, err := ui.ShowMenu("What would you like to configure?", options)
		if err != nil {
			return err
		}

		switch selected {
		case 0:
			if cfg.Source, err = ui.PromptSource(cfg.Source); err != nil {
				ui.ShowError(fmt.Sprintf("Source configuration failed: %v", err))
			}
		case 1:
			if cfg.Server, err = ui.PromptServer(cfg.Server); err != nil {
				ui.ShowError(fmt.Sprintf("Server configuration failed: %v", err))
			}
		case 2:
			if cfg.Engine.Parallelism, err = ui.PromptParallelism(cfg.Engine.Parallelism); err != nil {
				ui.ShowError(fmt.Sprintf("Engine configuration failed: %v", err))
			}
		case 3:
			if cfg.History.Enabled, err = ui.PromptYesNo("Record rank runs in history?", cfg.History.Enabled); err != nil {
				ui.ShowError(fmt.Sprintf("History configuration failed: %v", err))
			}
		case 4:
			if err := cfg.Validate(); err != nil {
				ui.ShowError(fmt.Sprintf("Configuration is invalid: %v", err))
				continue
			}
			if err := config.SaveTo(cfg, path); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}
			ui.ShowSuccess(fmt.Sprintf("Configuration saved to %s", path))
			return nil
		case 5:
			ui.ShowInfo("Configuration menu closed")
			return nil
		}
	}
}

// displayConfig shows a summary of the configuration being edited
func displayConfig(cfg *config.Config, path string) {
	fmt.Println()
	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	fmt.Print("  Source: ")
	if cfg.Source.Kind == config.SourceNone {
		gray.Println("none (empty store)")
	} else {
		green.Printf("%s %s\n", cfg.Source.Kind, cfg.Source.Path)
	}

	fmt.Printf("  Server: %s\n", cfg.Server.Addr)
	fmt.Printf("  Parallelism: %d\n", cfg.Engine.Parallelism)

	fmt.Print("  History: ")
	if cfg.History.Enabled {
		green.Println("Enabled")
	} else {
		gray.Println("Disabled")
	}

	gray.Printf("  File: %s\n", path)
	fmt.Println()
}
