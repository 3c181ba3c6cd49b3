// Package cli wires the three bridge subcommands — server, relayer, and
// generate-config — onto one cobra root command (spec.md §6), following the
// teacher's convention of one builder function per subcommand under
// cmd/cli.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the "bridge" cobra root command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "bridge",
		Short:         "cross-chain asset bridge authority and relayer",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServerCmd())
	root.AddCommand(newRelayerCmd())
	root.AddCommand(newGenerateConfigCmd())
	return root
}

func newLogger() *logrus.Entry {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logrus.NewEntry(l)
}
