package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// BridgeAuthorityState is one authority's full replica: every shard it
// serves, the committee it trusts, its signing key, and the escrow oracle
// it consults (spec.md §4.4). The entire state sits behind a single lock
// (spec.md §5): handlers are CPU-bound on signature verification plus a
// hash-table lookup, so contention is tolerable and the global lock makes
// cross-shard invariants trivially serialized.
type BridgeAuthorityState struct {
	mu        sync.Mutex
	name      PubKey
	keyPair   KeyPair
	committee *Committee
	oracle    EscrowOracle
	numShards uint32
	shards    map[ShardId]*BridgeShardState
	bus       *CrossShardBus
	log       *logrus.Entry
}

// NewBridgeAuthorityState constructs a replica serving numShards shards,
// ids 0..numShards-1.
func NewBridgeAuthorityState(keyPair KeyPair, committee *Committee, oracle EscrowOracle, numShards uint32, log *logrus.Entry) *BridgeAuthorityState {
	shards := make(map[ShardId]*BridgeShardState, numShards)
	for i := uint32(0); i < numShards; i++ {
		shards[ShardId(i)] = NewBridgeShardState(ShardId(i))
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &BridgeAuthorityState{
		name:      keyPair.PublicKey(),
		keyPair:   keyPair,
		committee: committee,
		oracle:    oracle,
		numShards: numShards,
		shards:    shards,
		bus:       NewCrossShardBus(),
		log:       log.WithField("authority", keyPair.PublicKey().String()),
	}
}

// Name returns this authority's committee identity.
func (a *BridgeAuthorityState) Name() PubKey { return a.name }

// Bus exposes the cross-shard bus so the server can start its consumer.
func (a *BridgeAuthorityState) Bus() *CrossShardBus { return a.bus }

// ShardIDs lists every shard this authority manages.
func (a *BridgeAuthorityState) ShardIDs() []ShardId {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]ShardId, 0, len(a.shards))
	for id := range a.shards {
		ids = append(ids, id)
	}
	return ids
}

// ShardSnapshot reports processed/pending counts for shardID, for the
// read-only debug endpoint. It never mutates state.
func (a *BridgeAuthorityState) ShardSnapshot(shardID ShardId) (processed, pending int, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, present := a.shards[shardID]
	if !present {
		return 0, 0, false
	}
	return len(s.processed), len(s.pending), true
}

// HandleOrder verifies and signs order on behalf of shardID (spec.md §4.4).
func (a *BridgeAuthorityState) HandleOrder(ctx context.Context, order CrossChainTransferOrder, shardID ShardId) (SignedCrossChainTransferOrder, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	transfer := order.Transfer
	if ShardOf(transfer.Sender, a.numShards) != shardID {
		return SignedCrossChainTransferOrder{}, NewError(ErrWrongShard,
			fmt.Sprintf("transfer %s does not belong to shard %d", transfer.InteropTxId, shardID))
	}

	shard, ok := a.shards[shardID]
	if !ok {
		return SignedCrossChainTransferOrder{}, NewError(ErrShardStateNotFound, fmt.Sprintf("shard %d", shardID))
	}

	if !order.VerifySenderSignature() {
		return SignedCrossChainTransferOrder{}, NewError(ErrInvalidSignature, "sender signature")
	}

	if shard.IsProcessed(transfer.InteropTxId) {
		return SignedCrossChainTransferOrder{}, NewError(ErrCertificateAlreadyExists, transfer.InteropTxId.String())
	}

	ok, err := a.oracle.VerifyEscrow(ctx, transfer)
	if err != nil {
		return SignedCrossChainTransferOrder{}, WrapError(ErrInvalidTransferAmount, "escrow oracle", err)
	}
	if !ok {
		return SignedCrossChainTransferOrder{}, NewError(ErrInvalidTransferAmount, "escrow not witnessed")
	}

	shard.insertPending(order)

	signed := NewSignedCrossChainTransferOrder(order, a.keyPair)
	a.log.WithFields(logrus.Fields{
		"shard":         shardID,
		"interop_tx_id": transfer.InteropTxId,
	}).Debug("order admitted and signed")
	return signed, nil
}

// HandleCrossShardUpdate applies a certified transfer to one of this
// authority's shards (spec.md §4.4).
func (a *BridgeAuthorityState) HandleCrossShardUpdate(update CrossShardCrossChainUpdate) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	shard, ok := a.shards[update.ShardID]
	if !ok {
		return NewError(ErrShardStateNotFound, fmt.Sprintf("shard %d", update.ShardID))
	}
	if err := update.Certificate.Check(a.committee); err != nil {
		return WrapError(ErrInvalidCrossShardUpdate, "certificate check", err)
	}
	shard.markProcessed(update.Certificate.Order.Transfer.InteropTxId)
	return nil
}

// PropagateCertifiedTransfer verifies cert and enqueues an update for every
// shard this authority manages (spec.md §4.4). Enqueue never blocks.
func (a *BridgeAuthorityState) PropagateCertifiedTransfer(cert CertifiedCrossChainTransferOrder) error {
	a.mu.Lock()
	shardIDs := make([]ShardId, 0, len(a.shards))
	for id := range a.shards {
		shardIDs = append(shardIDs, id)
	}
	committee := a.committee
	bus := a.bus
	a.mu.Unlock()

	if err := cert.Check(committee); err != nil {
		return WrapError(ErrInvalidCrossShardUpdate, "certificate check", err)
	}
	for _, id := range shardIDs {
		if err := bus.Send(CrossShardCrossChainUpdate{ShardID: id, Certificate: cert}); err != nil {
			return err
		}
	}
	return nil
}
