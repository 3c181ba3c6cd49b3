package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xchain-bridge/internal/relayer"
	"xchain-bridge/internal/transport"
	"xchain-bridge/pkg/config"
)

// newRelayerCmd builds `bridge relayer --committee <path> --source-rpc
// <url> --destination-rpc <url> --polling-interval <ms>` (spec.md §6):
// runs one relayer.
func newRelayerCmd() *cobra.Command {
	var (
		committeePath     string
		sourceRPC         string
		destinationRPC    string
		pollingIntervalMs int
	)

	cmd := &cobra.Command{
		Use:   "relayer",
		Short: "run the aggregation-protocol relayer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelayer(cmd.Context(), committeePath, sourceRPC, destinationRPC, pollingIntervalMs)
		},
	}

	cmd.Flags().StringVar(&committeePath, "committee", "", "path to the committee descriptor")
	cmd.Flags().StringVar(&sourceRPC, "source-rpc", "", "source-chain indexer URL")
	cmd.Flags().StringVar(&destinationRPC, "destination-rpc", "", "destination-chain RPC URL (submission is out of scope; logged only)")
	cmd.Flags().IntVar(&pollingIntervalMs, "polling-interval", 1000, "milliseconds between relayer rounds")
	_ = cmd.MarkFlagRequired("committee")
	_ = cmd.MarkFlagRequired("source-rpc")
	return cmd
}

func runRelayer(ctx context.Context, committeePath, sourceRPC, destinationRPC string, pollingIntervalMs int) error {
	log := newLogger()

	descriptor, err := config.LoadCommitteeDescriptor(committeePath)
	if err != nil {
		return err
	}
	committee, err := descriptor.Committee()
	if err != nil {
		return err
	}

	if destinationRPC == "" {
		log.Warn("no destination-rpc configured; certificates will be logged but not submitted")
	}

	r := relayer.New(
		descriptor,
		committee,
		transport.NewRelayClient(),
		relayer.NewHTTPSourceAdapter(sourceRPC),
		relayer.NopSubmitter{},
		time.Duration(pollingIntervalMs)*time.Millisecond,
		log,
	)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.WithField("authorities", len(descriptor.Authorities)).Info("relayer starting")
	r.Run(ctx)
	log.Info("relayer shut down")
	return nil
}
