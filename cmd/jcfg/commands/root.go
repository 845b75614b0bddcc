// Package commands provides the CLI commands for jcfg.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-java-cfg/internal/config"
	"github.com/l3aro/go-java-cfg/internal/log"
)

// app carries what every command needs once the root has loaded its
// configuration.
type app struct {
	cfg    *config.Config
	logger log.Logger
}

// NewRootCmd returns the jcfg command tree.
func NewRootCmd(version, buildTime string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "jcfg",
		Short: "jcfg - Control flow graphs for Java methods",
		Long: `jcfg parses Java source files and builds one control flow graph per method.

Commands:
  build       Build control flow graphs for files or directories
  tree        Print the minimal syntax tree of a file
  init        Create a configuration file interactively

Use "jcfg [command] --help" for more information about a command.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	template := "jcfg version {{.Version}}\n"
	if buildTime != "" {
		template = fmt.Sprintf("jcfg version {{.Version}} (built %s)\n", buildTime)
	}
	root.SetVersionTemplate(template)

	root.PersistentFlags().String("config", "", "Config file (default: ./.jcfg/config.yaml over ~/.jcfg/config.yaml)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	root.AddCommand(newBuildCmd(a))
	root.AddCommand(newTreeCmd(a))
	root.AddCommand(newInitCmd(a))
	return root
}

// setup loads the configuration and builds the logger. Flags override the
// configuration file.
func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		if _, err := log.ParseLevel(level); err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	if cmd.Flags().Changed("log-json") {
		cfg.LogJSON, _ = cmd.Flags().GetBool("log-json")
	}

	a.cfg = cfg
	a.logger = log.New(log.LoggerConfig{
		Level:      cfg.Level(),
		JSONOutput: cfg.LogJSON,
		Output:     cmd.ErrOrStderr(),
	})
	return nil
}
