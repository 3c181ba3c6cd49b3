package core

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
)

func discardLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func testTransfer(t *testing.T, sender KeyPair, nonce uint64) CrossChainTransferOrder {
	t.Helper()
	recipient := seededKeyPair(t, 60).PublicKey()
	tokenMint := seededKeyPair(t, 61).PublicKey()
	escrow := seededKeyPair(t, 62).PublicKey()
	transfer := NewCrossChainTransfer(1, 2, sender.PublicKey(), recipient, 1000, tokenMint, escrow, nonce)
	return NewCrossChainTransferOrder(transfer, sender)
}

func TestHandleOrderHappyPath(t *testing.T) {
	committee, authorities := fourAuthorityCommittee(t)
	replica := NewBridgeAuthorityState(authorities[0], committee, StaticOracle{Result: true}, 16, discardLog())

	sender := seededKeyPair(t, 150)
	order := testTransfer(t, sender, 0)
	shardID := ShardOf(sender.PublicKey(), 16)

	signed, err := replica.HandleOrder(context.Background(), order, shardID)
	if err != nil {
		t.Fatalf("HandleOrder: %v", err)
	}
	if err := signed.Verify(committee); err != nil {
		t.Fatalf("returned signed order failed Verify: %v", err)
	}
}

func TestHandleOrderWrongShard(t *testing.T) {
	committee, authorities := fourAuthorityCommittee(t)
	replica := NewBridgeAuthorityState(authorities[0], committee, StaticOracle{Result: true}, 16, discardLog())

	sender := seededKeyPair(t, 151)
	order := testTransfer(t, sender, 0)
	correct := ShardOf(sender.PublicKey(), 16)
	wrong := ShardId((uint32(correct) + 1) % 16)

	_, err := replica.HandleOrder(context.Background(), order, wrong)
	if KindOf(err) != ErrWrongShard {
		t.Fatalf("expected ErrWrongShard, got %v", err)
	}
}

func TestHandleOrderInvalidSenderSignature(t *testing.T) {
	committee, authorities := fourAuthorityCommittee(t)
	replica := NewBridgeAuthorityState(authorities[0], committee, StaticOracle{Result: true}, 16, discardLog())

	sender := seededKeyPair(t, 152)
	order := testTransfer(t, sender, 0)
	order.SenderSig[0] ^= 0xFF
	shardID := ShardOf(sender.PublicKey(), 16)

	_, err := replica.HandleOrder(context.Background(), order, shardID)
	if KindOf(err) != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestHandleOrderRejectsUnwitnessedEscrow(t *testing.T) {
	committee, authorities := fourAuthorityCommittee(t)
	replica := NewBridgeAuthorityState(authorities[0], committee, StaticOracle{Result: false}, 16, discardLog())

	sender := seededKeyPair(t, 153)
	order := testTransfer(t, sender, 0)
	shardID := ShardOf(sender.PublicKey(), 16)

	_, err := replica.HandleOrder(context.Background(), order, shardID)
	if KindOf(err) != ErrInvalidTransferAmount {
		t.Fatalf("expected ErrInvalidTransferAmount when escrow unwitnessed, got %v", err)
	}
}

func TestHandleOrderRejectsAlreadyProcessed(t *testing.T) {
	committee, authorities := fourAuthorityCommittee(t)
	replica := NewBridgeAuthorityState(authorities[0], committee, StaticOracle{Result: true}, 16, discardLog())

	sender := seededKeyPair(t, 154)
	order := testTransfer(t, sender, 0)
	shardID := ShardOf(sender.PublicKey(), 16)

	signed, err := replica.HandleOrder(context.Background(), order, shardID)
	if err != nil {
		t.Fatalf("first HandleOrder: %v", err)
	}

	// Build a quorum certificate and mark the order processed via the
	// cross-shard-update path, then replay the identical order.
	agg, err := NewCertificateAggregator(order, committee, true)
	if err != nil {
		t.Fatalf("NewCertificateAggregator: %v", err)
	}
	var cert *CertifiedCrossChainTransferOrder
	cert, err = agg.Append(signed.Authority, signed.AuthSig)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	canonical := order.Transfer.CanonicalBytes()
	for i := 1; cert == nil && i < len(authorities); i++ {
		sig := authorities[i].Sign(canonical)
		cert, err = agg.Append(authorities[i].PublicKey(), sig)
		if err != nil {
			t.Fatalf("Append authority %d: %v", i, err)
		}
	}
	if cert == nil {
		t.Fatalf("expected certificate to complete")
	}
	if err := replica.HandleCrossShardUpdate(CrossShardCrossChainUpdate{ShardID: shardID, Certificate: *cert}); err != nil {
		t.Fatalf("HandleCrossShardUpdate: %v", err)
	}

	_, err = replica.HandleOrder(context.Background(), order, shardID)
	if KindOf(err) != ErrCertificateAlreadyExists {
		t.Fatalf("expected ErrCertificateAlreadyExists on replay, got %v", err)
	}
}

func TestHandleCrossShardUpdateIdempotent(t *testing.T) {
	committee, authorities := fourAuthorityCommittee(t)
	replica := NewBridgeAuthorityState(authorities[0], committee, StaticOracle{Result: true}, 16, discardLog())

	sender := seededKeyPair(t, 155)
	order := testTransfer(t, sender, 0)
	shardID := ShardOf(sender.PublicKey(), 16)

	canonical := order.Transfer.CanonicalBytes()
	agg, err := NewCertificateAggregator(order, committee, false)
	if err != nil {
		t.Fatalf("NewCertificateAggregator: %v", err)
	}
	var cert *CertifiedCrossChainTransferOrder
	for i := 0; cert == nil && i < len(authorities); i++ {
		sig := authorities[i].Sign(canonical)
		cert, err = agg.Append(authorities[i].PublicKey(), sig)
		if err != nil {
			t.Fatalf("Append authority %d: %v", i, err)
		}
	}
	if cert == nil {
		t.Fatalf("expected certificate to complete")
	}

	update := CrossShardCrossChainUpdate{ShardID: shardID, Certificate: *cert}
	if err := replica.HandleCrossShardUpdate(update); err != nil {
		t.Fatalf("first HandleCrossShardUpdate: %v", err)
	}
	if err := replica.HandleCrossShardUpdate(update); err != nil {
		t.Fatalf("repeated HandleCrossShardUpdate must be idempotent, got: %v", err)
	}
	processed, pending, ok := replica.ShardSnapshot(shardID)
	if !ok {
		t.Fatalf("shard %d missing from snapshot", shardID)
	}
	if processed != 1 || pending != 0 {
		t.Fatalf("snapshot = (processed=%d, pending=%d), want (1, 0)", processed, pending)
	}
}

func TestHandleCrossShardUpdateRejectsBelowQuorum(t *testing.T) {
	committee, authorities := fourAuthorityCommittee(t)
	replica := NewBridgeAuthorityState(authorities[0], committee, StaticOracle{Result: true}, 16, discardLog())

	sender := seededKeyPair(t, 156)
	order := testTransfer(t, sender, 0)
	shardID := ShardOf(sender.PublicKey(), 16)
	canonical := order.Transfer.CanonicalBytes()

	cert := CertifiedCrossChainTransferOrder{
		Order: order,
		Signatures: []AuthoritySignature{
			{Authority: authorities[0].PublicKey(), Signature: authorities[0].Sign(canonical)},
		},
	}
	err := replica.HandleCrossShardUpdate(CrossShardCrossChainUpdate{ShardID: shardID, Certificate: cert})
	if KindOf(err) != ErrInvalidCrossShardUpdate {
		t.Fatalf("expected ErrInvalidCrossShardUpdate, got %v", err)
	}
}

func TestPropagateCertifiedTransferFansOutToEveryShard(t *testing.T) {
	committee, authorities := fourAuthorityCommittee(t)
	const numShards = 4
	replica := NewBridgeAuthorityState(authorities[0], committee, StaticOracle{Result: true}, numShards, discardLog())

	sender := seededKeyPair(t, 157)
	order := testTransfer(t, sender, 0)
	canonical := order.Transfer.CanonicalBytes()

	agg, err := NewCertificateAggregator(order, committee, false)
	if err != nil {
		t.Fatalf("NewCertificateAggregator: %v", err)
	}
	var cert *CertifiedCrossChainTransferOrder
	for i := 0; cert == nil && i < len(authorities); i++ {
		sig := authorities[i].Sign(canonical)
		cert, err = agg.Append(authorities[i].PublicKey(), sig)
		if err != nil {
			t.Fatalf("Append authority %d: %v", i, err)
		}
	}
	if cert == nil {
		t.Fatalf("expected certificate to complete")
	}

	if err := replica.PropagateCertifiedTransfer(*cert); err != nil {
		t.Fatalf("PropagateCertifiedTransfer: %v", err)
	}

	seenShards := make(map[ShardId]bool)
	for i := 0; i < numShards; i++ {
		update, ok := replica.Bus().Recv()
		if !ok {
			t.Fatalf("bus closed early after %d updates", i)
		}
		seenShards[update.ShardID] = true
	}
	if len(seenShards) != numShards {
		t.Fatalf("expected updates for %d distinct shards, got %d", numShards, len(seenShards))
	}
}
