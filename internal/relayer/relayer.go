package relayer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"xchain-bridge/core"
	"xchain-bridge/pkg/config"
)

// PendingTimeout is the only wall-clock timeout in the system (spec.md §5):
// a pending transfer that has not reached quorum after this long is
// dropped, and a later re-discovery re-enters the protocol from scratch.
const PendingTimeout = 300 * time.Second

// DefaultPollingInterval is the cadence between relayer rounds absent an
// explicit override (spec.md §4.6).
const DefaultPollingInterval = 1 * time.Second

// SourceCheckInterval throttles how often the relayer re-queries the
// source chain for new transfers, independent of the polling cadence that
// drives vote dispatch and timeout checks (spec.md §4.6).
const SourceCheckInterval = 10 * time.Second

// TransferSource discovers new transfers out-of-band. Source-chain tailing
// is an external concern (spec.md §1); this is the contract an adapter
// must satisfy. Each returned order is already signed by its sender.
type TransferSource interface {
	DiscoverTransfers(ctx context.Context) ([]core.CrossChainTransferOrder, error)
}

// DestinationSubmitter submits a completed certificate to the destination
// chain. Also external per spec.md §1; a nil submitter simply logs.
type DestinationSubmitter interface {
	SubmitCertificate(ctx context.Context, cert core.CertifiedCrossChainTransferOrder) error
}

// AuthorityClient is the transport-level capability the relayer needs per
// authority: send an order to a shard endpoint and get back a signed vote,
// or fire-and-forget a certificate/update. Implemented by internal/transport
// in production and faked in tests.
type AuthorityClient interface {
	SendOrder(ctx context.Context, endpoint string, order core.CrossChainTransferOrder) (core.SignedCrossChainTransferOrder, error)
	SendCertificate(ctx context.Context, endpoint string, cert core.CertifiedCrossChainTransferOrder) error
}

// Relayer drives transfers to completion: dispatch, aggregate, broadcast,
// timeout (spec.md §4.6). It holds no chain state of its own; its failure
// harms liveness only, never safety.
type Relayer struct {
	committee   *core.Committee
	descriptor  *config.CommitteeDescriptor
	client      AuthorityClient
	source      TransferSource
	submitter   DestinationSubmitter
	pollEvery   time.Duration
	log         *logrus.Entry

	mu             sync.Mutex
	pending        map[core.InteropTxId]*PendingTransfer
	processed      map[core.InteropTxId]struct{}
	lastSourceScan time.Time
}

// New builds a Relayer. pollEvery <= 0 selects DefaultPollingInterval.
func New(descriptor *config.CommitteeDescriptor, committee *core.Committee, client AuthorityClient, source TransferSource, submitter DestinationSubmitter, pollEvery time.Duration, log *logrus.Entry) *Relayer {
	if pollEvery <= 0 {
		pollEvery = DefaultPollingInterval
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Relayer{
		committee:  committee,
		descriptor: descriptor,
		client:     client,
		source:     source,
		submitter:  submitter,
		pollEvery:  pollEvery,
		log:        log.WithField("component", "relayer"),
		pending:    make(map[core.InteropTxId]*PendingTransfer),
		processed:  make(map[core.InteropTxId]struct{}),
	}
}

// Run executes the relayer's outer poll loop until ctx is cancelled. An
// in-flight transport call may be abandoned on cancellation and its
// eventual response discarded without corrupting pending-transfer state
// (spec.md §5).
func (r *Relayer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.round(ctx)
		}
	}
}

func (r *Relayer) round(ctx context.Context) {
	r.maybeDiscover(ctx)
	r.dispatchPending(ctx)
	r.reapTimeouts()
}

func (r *Relayer) maybeDiscover(ctx context.Context) {
	r.mu.Lock()
	due := time.Since(r.lastSourceScan) >= SourceCheckInterval
	r.mu.Unlock()
	if !due {
		return
	}

	orders, err := r.source.DiscoverTransfers(ctx)
	r.mu.Lock()
	r.lastSourceScan = time.Now()
	r.mu.Unlock()
	if err != nil {
		r.log.WithError(err).Warn("source discovery failed")
		return
	}

	for _, order := range orders {
		r.observe(order)
	}
}

// observe registers a newly discovered order. Re-observing an id that is
// pending, already certified, or mid-flight is a no-op; after a timeout the
// same id can re-enter the protocol (spec.md §4.6 re-entrancy requirement).
func (r *Relayer) observe(order core.CrossChainTransferOrder) {
	id := order.Transfer.InteropTxId
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, done := r.processed[id]; done {
		return
	}
	if _, exists := r.pending[id]; exists {
		return
	}
	pt, err := newPendingTransfer(order, r.committee, time.Now())
	if err != nil {
		r.log.WithError(err).WithField("interop_tx_id", id).Warn("discarding unsignable order")
		return
	}
	r.pending[id] = pt
	r.log.WithField("interop_tx_id", id).Debug("tracking new transfer")
}

func (r *Relayer) dispatchPending(ctx context.Context) {
	r.mu.Lock()
	snapshot := make([]*PendingTransfer, 0, len(r.pending))
	ids := make([]core.InteropTxId, 0, len(r.pending))
	for id, pt := range r.pending {
		snapshot = append(snapshot, pt)
		ids = append(ids, id)
	}
	r.mu.Unlock()

	if len(ids) > 0 {
		r.log.WithFields(logrus.Fields{
			"pending":     len(ids),
			"fingerprint": pendingSetFingerprint(ids),
		}).Debug("dispatching pending set")
	}

	for _, pt := range snapshot {
		r.dispatchOne(ctx, pt)
	}
}

func (r *Relayer) dispatchOne(ctx context.Context, pt *PendingTransfer) {
	var completed *core.CertifiedCrossChainTransferOrder

	// correlationID is logged with every failed authority call this
	// dispatch round makes for this transfer, so the failures of one round
	// can be grouped together. The vote-rejection log lines do not carry it.
	correlationID := uuid.NewString()

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, entry := range r.descriptor.Authorities {
		authority, err := core.ParsePubKey(entry.Name)
		if err != nil {
			continue
		}
		if pt.HasVoted(authority) {
			continue
		}
		shard := pt.Order.Transfer.Shard(entry.NumShards)
		endpoint := entry.Endpoint(shard)

		wg.Add(1)
		go func(authority core.PubKey, endpoint string) {
			defer wg.Done()
			signed, err := r.client.SendOrder(ctx, endpoint, pt.Order)
			if err != nil {
				r.log.WithError(err).WithFields(logrus.Fields{
					"authority":      authority,
					"endpoint":       endpoint,
					"correlation_id": correlationID,
				}).Warn("dispatch failed, will retry next round")
				return
			}
			if signed.Authority != authority {
				r.log.WithField("authority", authority).Warn("reply from unexpected authority")
				return
			}
			if err := signed.Verify(r.committee); err != nil {
				r.log.WithError(err).WithField("authority", authority).Warn("rejecting unverifiable vote")
				return
			}
			mu.Lock()
			defer mu.Unlock()
			cert, err := pt.AddVote(signed.Authority, signed.AuthSig)
			if err != nil {
				r.log.WithError(err).WithField("authority", authority).Warn("rejecting vote")
				return
			}
			if cert != nil {
				completed = cert
			}
		}(authority, endpoint)
	}
	wg.Wait()

	if completed != nil {
		r.complete(ctx, pt.Order.Transfer.InteropTxId, *completed)
	}
}

func (r *Relayer) complete(ctx context.Context, id core.InteropTxId, cert core.CertifiedCrossChainTransferOrder) {
	if r.submitter != nil {
		if err := r.submitter.SubmitCertificate(ctx, cert); err != nil {
			r.log.WithError(err).WithField("interop_tx_id", id).Warn("destination submission failed")
		}
	} else {
		r.log.WithField("interop_tx_id", id).Debug("no destination submitter configured, skipping chain submission")
	}

	// propagate_certified_transfer fans the certificate out to every shard
	// an authority manages in-process (spec.md §4.4), so the relayer only
	// needs to deliver it once per authority, to that authority's shard-0
	// endpoint.
	for _, entry := range r.descriptor.Authorities {
		endpoint := entry.Endpoint(core.ShardId(0))
		if err := r.client.SendCertificate(ctx, endpoint, cert); err != nil {
			r.log.WithError(err).WithField("authority", entry.Name).Warn("certificate broadcast failed")
		}
	}

	r.mu.Lock()
	delete(r.pending, id)
	r.processed[id] = struct{}{}
	r.mu.Unlock()
	r.log.WithField("interop_tx_id", id).Info("transfer certified")
}

func (r *Relayer) reapTimeouts() {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, pt := range r.pending {
		if pt.Elapsed(now) > PendingTimeout {
			delete(r.pending, id)
			r.log.WithFields(logrus.Fields{
				"interop_tx_id": id,
				"elapsed":       pt.Elapsed(now),
				"weight":        pt.Weight(),
			}).Warn("timeout: dropping pending transfer")
		}
	}
}
