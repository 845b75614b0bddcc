package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-java-cfg/internal/config"
)

func newInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize jcfg configuration interactively",
		Long: `Guides you through setting up jcfg configuration step by step.
Creates a config file with the default output format, verification and
result cache settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			global, _ := cmd.Flags().GetBool("global")
			return a.runInit(cmd.OutOrStdout(), global)
		},
	}
	cmd.Flags().Bool("global", false, "Save to ~/.jcfg/config.yaml without asking")
	return cmd
}

func (a *app) runInit(out io.Writer, global bool) error {
	// Start from the effective configuration so re-running init edits it.
	cfg := *a.cfg
	cacheSize := strconv.Itoa(cfg.CacheSize)

	// === SECTION 1: Output ===
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output format").
				Description("Format used when --format is not given").
				Options(
					huh.NewOption("Text listing", "text"),
					huh.NewOption("JSON", "json"),
					huh.NewOption("Graphviz DOT", "dot"),
				).
				Value(&cfg.Format),
			huh.NewInput().
				Title("Output directory (optional, press Enter for stdout)").
				Placeholder("stdout").
				Value(&cfg.OutputDir),
			huh.NewConfirm().
				Title("Verify graphs").
				Description("Check structural properties of every graph after building?").
				Value(&cfg.Verify),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Cache ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Result cache").
				Description("Reuse graphs of unchanged files between runs?").
				Affirmative("Enable").
				Negative("Disable").
				Value(&cfg.CacheEnabled),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	if cfg.CacheEnabled {
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Cache directory").
					Placeholder(cfg.CacheDir).
					Value(&cfg.CacheDir),
				huh.NewInput().
					Title("Maximum cached files").
					Placeholder(cacheSize).
					Validate(func(s string) error {
						n, err := strconv.Atoi(s)
						if err != nil || n <= 0 {
							return fmt.Errorf("must be a positive number")
						}
						return nil
					}).
					Value(&cacheSize),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		cfg.CacheSize, _ = strconv.Atoi(cacheSize)
	}

	// === SECTION 3: Logging ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&cfg.LogLevel),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 4: Config Location ===
	saveLocationChoice := "project"
	if global {
		saveLocationChoice = "global"
	} else {
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Save Configuration").
					Description("Where to save the configuration file?").
					Options(
						huh.NewOption("Project (./.jcfg/config.yaml)", "project"),
						huh.NewOption("Global (~/.jcfg/config.yaml)", "global"),
					).
					Value(&saveLocationChoice),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
	}

	configPath := config.ProjectConfigFilePath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigFilePath()
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	printPreview(out, configPath, &cfg)

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(out, "Configuration saved to: %s\n", configPath)

	// Read it back the way later runs will.
	if _, err := config.LoadFromFile(configPath); err != nil {
		return fmt.Errorf("loading saved config: %w", err)
	}
	a.logger.Debug("config written", "path", configPath)

	fmt.Fprintln(out, "\n=== Initialization Complete ===")
	return nil
}

func printPreview(out io.Writer, configPath string, cfg *config.Config) {
	if abs, err := filepath.Abs(configPath); err == nil {
		configPath = abs
	}
	output := cfg.OutputDir
	if output == "" {
		output = "stdout"
	}

	fmt.Fprintln(out, "\n=== Configuration Preview ===")
	fmt.Fprintf(out, "Config path: %s\n", configPath)
	fmt.Fprintf(out, "Format: %s\n", cfg.Format)
	fmt.Fprintf(out, "Output: %s\n", output)
	fmt.Fprintf(out, "Verify: %t\n", cfg.Verify)
	if cfg.CacheEnabled {
		fmt.Fprintf(out, "Cache: %s (%d files)\n", cfg.CacheDir, cfg.CacheSize)
	} else {
		fmt.Fprintln(out, "Cache: disabled")
	}
	fmt.Fprintf(out, "Log level: %s\n", cfg.LogLevel)
	fmt.Fprintln(out, "================================")
}
