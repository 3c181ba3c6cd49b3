package transport

import (
	"context"

	"xchain-bridge/core"
)

// RelayClient is the relayer's view of the UDP transport: send an order and
// wait for a vote, or fire-and-forget a certificate. It satisfies
// relayer.AuthorityClient structurally.
type RelayClient struct{}

func NewRelayClient() *RelayClient { return &RelayClient{} }

func (c *RelayClient) SendOrder(ctx context.Context, endpoint string, order core.CrossChainTransferOrder) (core.SignedCrossChainTransferOrder, error) {
	reply, err := Call(ctx, endpoint, TransferOrderMessage(order))
	if err != nil {
		return core.SignedCrossChainTransferOrder{}, err
	}
	switch reply.Kind {
	case KindSignedTransferOrder:
		return reply.SignedTransferOrder, nil
	case KindError:
		return core.SignedCrossChainTransferOrder{}, core.NewError(core.ErrCommunicationError, reply.ErrorDetail)
	default:
		return core.SignedCrossChainTransferOrder{}, core.NewError(core.ErrUnexpectedMessage, "unexpected reply variant")
	}
}

func (c *RelayClient) SendCertificate(ctx context.Context, endpoint string, cert core.CertifiedCrossChainTransferOrder) error {
	return Send(ctx, endpoint, CertifiedTransferOrderMessage(cert))
}
