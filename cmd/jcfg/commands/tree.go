package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-java-cfg/pkg/cfg"
)

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file>",
		Short: "Print the minimal syntax tree of a Java file",
		Long: `Parses a Java file and prints its minimal syntax tree: single-child
productions are collapsed and tokens are shown as TOKEN[text].`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("path is a directory, expected a file: %s", path)
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}

			root, err := cfg.Simplify(cmd.Context(), content)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			a.logger.Debug("parsed file", "file", path, "bytes", len(content))

			_, err = fmt.Fprint(cmd.OutOrStdout(), root.String())
			return err
		},
	}
}
