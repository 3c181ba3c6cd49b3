package relayer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"xchain-bridge/core"
)

// wireOrder is the JSON shape an HTTPSourceAdapter expects from a
// source-chain indexer: a transfer plus the sender's hex-encoded
// signature. The concrete source-chain escrow oracle and discovery feed
// are external collaborators per spec.md §1; this adapter is one
// replaceable implementation of TransferSource, not a requirement.
type wireOrder struct {
	SourceChain      uint16 `json:"source_chain"`
	DestinationChain uint16 `json:"destination_chain"`
	Sender           string `json:"sender"`
	Recipient        string `json:"recipient"`
	Amount           uint64 `json:"amount"`
	TokenMint        string `json:"token_mint"`
	EscrowAccount    string `json:"escrow_account"`
	Nonce            uint64 `json:"nonce"`
	SenderSig        string `json:"sender_sig"`
}

// HTTPSourceAdapter polls a source-chain indexer's HTTP endpoint for newly
// witnessed transfers, each already signed by its sender.
type HTTPSourceAdapter struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPSourceAdapter(baseURL string) *HTTPSourceAdapter {
	return &HTTPSourceAdapter{BaseURL: baseURL, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (a *HTTPSourceAdapter) DiscoverTransfers(ctx context.Context) ([]core.CrossChainTransferOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/pending-transfers", nil)
	if err != nil {
		return nil, core.WrapError(core.ErrCommunicationError, "build discovery request", err)
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrCommunicationError, "discovery request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, core.NewError(core.ErrCommunicationError, fmt.Sprintf("discovery endpoint returned %d", resp.StatusCode))
	}

	var wire []wireOrder
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, core.WrapError(core.ErrCommunicationError, "decode discovery response", err)
	}

	orders := make([]core.CrossChainTransferOrder, 0, len(wire))
	for _, w := range wire {
		order, err := w.toOrder()
		if err != nil {
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (w wireOrder) toOrder() (core.CrossChainTransferOrder, error) {
	sender, err := core.ParsePubKey(w.Sender)
	if err != nil {
		return core.CrossChainTransferOrder{}, err
	}
	recipient, err := core.ParsePubKey(w.Recipient)
	if err != nil {
		return core.CrossChainTransferOrder{}, err
	}
	tokenMint, err := core.ParsePubKey(w.TokenMint)
	if err != nil {
		return core.CrossChainTransferOrder{}, err
	}
	escrow, err := core.ParsePubKey(w.EscrowAccount)
	if err != nil {
		return core.CrossChainTransferOrder{}, err
	}
	transfer := core.NewCrossChainTransfer(
		core.ChainId(w.SourceChain), core.ChainId(w.DestinationChain),
		sender, recipient, w.Amount, tokenMint, escrow, w.Nonce,
	)
	sigBytes, err := hex.DecodeString(w.SenderSig)
	if err != nil || len(sigBytes) != 64 {
		return core.CrossChainTransferOrder{}, core.NewError(core.ErrInvalidDecoding, "sender_sig")
	}
	var sig core.Signature
	copy(sig[:], sigBytes)
	return core.CrossChainTransferOrder{Transfer: transfer, SenderSig: sig}, nil
}

// NopSubmitter discards certificates instead of submitting them to a
// destination chain, which is out of scope per spec.md §1. It logs nothing
// itself; the relayer's "transfer certified" line is the only record.
type NopSubmitter struct{}

func (NopSubmitter) SubmitCertificate(context.Context, core.CertifiedCrossChainTransferOrder) error {
	return nil
}
