package core

import "fmt"

// CrossChainTransfer is the immutable business payload of a bridge transfer
// (spec.md §3). Only CrossChainTransfer is ever signed directly; every
// higher-level structure embeds or references that signature.
type CrossChainTransfer struct {
	SourceChain      ChainId
	DestinationChain ChainId
	Sender           PubKey
	Recipient        PubKey
	Amount           uint64
	TokenMint        PubKey
	InteropTxId      InteropTxId
	EscrowAccount    PubKey
	Nonce            uint64
}

// NewCrossChainTransfer builds a transfer and derives its content-hashed id.
func NewCrossChainTransfer(source, destination ChainId, sender, recipient PubKey, amount uint64, tokenMint, escrowAccount PubKey, nonce uint64) CrossChainTransfer {
	id := GenerateInteropTxId(source, destination, sender, recipient, amount, tokenMint, nonce)
	return CrossChainTransfer{
		SourceChain:      source,
		DestinationChain: destination,
		Sender:           sender,
		Recipient:        recipient,
		Amount:           amount,
		TokenMint:        tokenMint,
		InteropTxId:      id,
		EscrowAccount:    escrowAccount,
		Nonce:            nonce,
	}
}

// CanonicalBytes returns the canonical signable encoding (spec.md §4.1).
func (t CrossChainTransfer) CanonicalBytes() []byte {
	buf := canonicalHeader("CrossChainTransfer")
	writeU16(buf, uint16(t.SourceChain))
	writeU16(buf, uint16(t.DestinationChain))
	buf.Write(t.Sender[:])
	buf.Write(t.Recipient[:])
	writeU64(buf, t.Amount)
	buf.Write(t.TokenMint[:])
	buf.Write(t.InteropTxId[:])
	buf.Write(t.EscrowAccount[:])
	writeU64(buf, t.Nonce)
	return buf.Bytes()
}

// Shard returns the owning shard of this transfer under the given shard
// cardinality. See shard.go for the shard-assignment function itself.
func (t CrossChainTransfer) Shard(numShards uint32) ShardId {
	return ShardOf(t.Sender, numShards)
}

// CrossChainTransferOrder is a transfer plus the sender's signature over its
// canonical encoding (spec.md §3).
type CrossChainTransferOrder struct {
	Transfer  CrossChainTransfer
	SenderSig Signature
}

// NewCrossChainTransferOrder signs transfer with the sender's key pair.
func NewCrossChainTransferOrder(transfer CrossChainTransfer, sender KeyPair) CrossChainTransferOrder {
	return CrossChainTransferOrder{
		Transfer:  transfer,
		SenderSig: sender.Sign(transfer.CanonicalBytes()),
	}
}

// VerifySenderSignature checks the inner signature verifies under
// transfer.Sender (spec.md §3 invariant).
func (o CrossChainTransferOrder) VerifySenderSignature() bool {
	return VerifySignature(o.Transfer.Sender, o.Transfer.CanonicalBytes(), o.SenderSig)
}

// SignedCrossChainTransferOrder is an order countersigned by one authority
// (spec.md §3).
type SignedCrossChainTransferOrder struct {
	Order     CrossChainTransferOrder
	Authority PubKey
	AuthSig   Signature
}

// NewSignedCrossChainTransferOrder countersigns order.Transfer with the
// authority's key pair. Only the transfer itself is covered by the outer
// signature (spec.md §9 Open Questions): the inner sender signature is kept
// and verified separately, never re-signed.
func NewSignedCrossChainTransferOrder(order CrossChainTransferOrder, authority KeyPair) SignedCrossChainTransferOrder {
	return SignedCrossChainTransferOrder{
		Order:     order,
		Authority: authority.PublicKey(),
		AuthSig:   authority.Sign(order.Transfer.CanonicalBytes()),
	}
}

// Verify checks that Authority is a positive-weight committee member and
// that both the inner sender signature and the outer authority signature
// verify (spec.md §3 invariant).
func (s SignedCrossChainTransferOrder) Verify(committee *Committee) error {
	if committee.Weight(s.Authority) == 0 {
		return NewError(ErrUnknownSigner, fmt.Sprintf("authority %s not in committee", s.Authority))
	}
	if !s.Order.VerifySenderSignature() {
		return NewError(ErrInvalidSignature, "sender signature")
	}
	if !VerifySignature(s.Authority, s.Order.Transfer.CanonicalBytes(), s.AuthSig) {
		return NewError(ErrInvalidSignature, fmt.Sprintf("authority %s signature", s.Authority))
	}
	return nil
}
