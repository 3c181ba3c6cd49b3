// Package relayer implements the aggregation protocol described in
// spec.md §4.6: discover transfers out-of-band, collect authority votes
// into a certificate, and broadcast the result back to the authorities.
package relayer

import (
	"time"

	"xchain-bridge/core"
)

// PendingTransfer tracks one transfer's progress toward certification
// (spec.md §3). It is destroyed on successful certification, on timeout,
// or on relayer restart — nothing here is persisted.
type PendingTransfer struct {
	Order      core.CrossChainTransferOrder
	aggregator *core.CertificateAggregator
	votes      map[core.PubKey]struct{}
	StartedAt  time.Time
}

func newPendingTransfer(order core.CrossChainTransferOrder, committee *core.Committee, startedAt time.Time) (*PendingTransfer, error) {
	agg, err := core.NewCertificateAggregator(order, committee, false)
	if err != nil {
		return nil, err
	}
	return &PendingTransfer{
		Order:      order,
		aggregator: agg,
		votes:      make(map[core.PubKey]struct{}),
		StartedAt:  startedAt,
	}, nil
}

// AddVote records a verified signed order from authority, returning the
// completed certificate the first time quorum is reached.
func (p *PendingTransfer) AddVote(authority core.PubKey, sig core.Signature) (*core.CertifiedCrossChainTransferOrder, error) {
	if _, dup := p.votes[authority]; dup {
		return nil, nil // already counted this round or a prior one; no-op.
	}
	cert, err := p.aggregator.Append(authority, sig)
	if err != nil {
		return nil, err
	}
	p.votes[authority] = struct{}{}
	return cert, nil
}

// Weight returns the currently accumulated vote weight.
func (p *PendingTransfer) Weight() uint64 { return p.aggregator.Weight() }

// HasVoted reports whether authority has already contributed a vote.
func (p *PendingTransfer) HasVoted(authority core.PubKey) bool {
	_, ok := p.votes[authority]
	return ok
}

// Elapsed returns how long this transfer has been pending as of now.
func (p *PendingTransfer) Elapsed(now time.Time) time.Duration {
	return now.Sub(p.StartedAt)
}
