package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"xchain-bridge/pkg/config"
)

// newGenerateConfigCmd builds `bridge generate-config --num-authorities <n>
// --num-shards <u32> --host <addr> --base-port <u16> --port-step <u16>
// --output-dir <path>` (spec.md §6): emits one committee descriptor and n
// authority descriptors with fresh Ed25519 keys.
func newGenerateConfigCmd() *cobra.Command {
	var p config.GenerateConfigParams

	cmd := &cobra.Command{
		Use:   "generate-config",
		Short: "generate a committee descriptor and authority key material",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.GenerateConfig(p); err != nil {
				return err
			}
			fmt.Printf("wrote committee descriptor and %d authority descriptors to %s\n", p.NumAuthorities, p.OutputDir)
			return nil
		},
	}

	cmd.Flags().IntVar(&p.NumAuthorities, "num-authorities", 4, "number of authorities to generate")
	cmd.Flags().Uint32Var(&p.NumShards, "num-shards", 16, "number of shards each authority serves")
	cmd.Flags().StringVar(&p.Host, "host", "127.0.0.1", "host every authority advertises")
	var basePort, portStep uint16
	cmd.Flags().Uint16Var(&basePort, "base-port", 9000, "base UDP port for the first authority")
	cmd.Flags().Uint16Var(&portStep, "port-step", 100, "port stride between authorities")
	cmd.Flags().StringVar(&p.OutputDir, "output-dir", "./config", "directory to write descriptors into")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		p.BasePort = basePort
		p.PortStep = portStep
		return nil
	}
	return cmd
}
