// Package core implements the authority replica, committee arithmetic and
// the signed-value layer of the cross-chain bridge: identifiers, keys,
// canonical signing, committee weights, and the per-shard state machine
// that verifies and certifies transfers.
package core

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// ChainId identifies a blockchain the bridge knows how to witness or mint on.
type ChainId uint16

// PubKey is a fixed 32-byte Ed25519 public key. It doubles as an authority
// name and as any generic 32-byte chain identifier (sender, recipient,
// escrow account, token mint) per spec.md §3.
type PubKey [32]byte

func (p PubKey) String() string { return hex.EncodeToString(p[:]) }
func (p PubKey) Bytes() []byte  { return p[:] }
func (p PubKey) IsZero() bool   { return p == PubKey{} }

// ParsePubKey decodes a lowercase-hex 32-byte public key.
func ParsePubKey(s string) (PubKey, error) {
	var pk PubKey
	b, err := hex.DecodeString(s)
	if err != nil {
		return pk, fmt.Errorf("decode pubkey hex: %w", err)
	}
	if len(b) != len(pk) {
		return pk, fmt.Errorf("pubkey must be %d bytes, got %d", len(pk), len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// Signature is a 64-byte Ed25519 signature over a canonical byte encoding.
type Signature [64]byte

func (s Signature) Bytes() []byte { return s[:] }
func (s Signature) String() string { return hex.EncodeToString(s[:]) }

// KeyPair owns signing capability for one authority or user identity. It is
// created once from persisted seed material and never transmitted.
type KeyPair struct {
	seed [32]byte
	priv ed25519.PrivateKey
	pub  PubKey
}

// NewKeyPair derives a KeyPair from a 32-byte Ed25519 seed.
func NewKeyPair(seed [32]byte) KeyPair {
	priv := ed25519.NewKeyFromSeed(seed[:])
	var pub PubKey
	copy(pub[:], priv.Public().(ed25519.PublicKey))
	return KeyPair{seed: seed, priv: priv, pub: pub}
}

// GenerateKeyPair creates a fresh random KeyPair, used by generate-config.
func GenerateKeyPair() (KeyPair, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return KeyPair{}, fmt.Errorf("read random seed: %w", err)
	}
	return NewKeyPair(seed), nil
}

func (k KeyPair) PublicKey() PubKey { return k.pub }
func (k KeyPair) Seed() [32]byte { return k.seed }

// Sign produces a Signature over the canonical encoding passed in.
func (k KeyPair) Sign(canonical []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(k.priv, canonical))
	return sig
}

// VerifySignature checks sig over canonical under pub.
func VerifySignature(pub PubKey, canonical []byte, sig Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), canonical, sig[:])
}

// InteropTxId is the content-hash identifier of a cross-chain transfer
// (spec.md §3): the leading 32 bytes of SHA-512 over the transfer's
// identifying fields, each integer little-endian.
type InteropTxId [32]byte

func (id InteropTxId) String() string { return hex.EncodeToString(id[:]) }
func (id InteropTxId) IsZero() bool   { return id == InteropTxId{} }

// GenerateInteropTxId computes the deterministic content hash identifying a
// transfer. It is a pure function of its inputs (testable property #1).
func GenerateInteropTxId(source, destination ChainId, sender, recipient PubKey, amount uint64, tokenMint PubKey, nonce uint64) InteropTxId {
	var buf bytes.Buffer
	writeU16(&buf, uint16(source))
	writeU16(&buf, uint16(destination))
	buf.Write(sender[:])
	buf.Write(recipient[:])
	writeU64(&buf, amount)
	buf.Write(tokenMint[:])
	writeU64(&buf, nonce)
	digest := sha512.Sum512(buf.Bytes())
	var id InteropTxId
	copy(id[:], digest[:32])
	return id
}

//---------------------------------------------------------------------
// Canonical signing encoding (spec.md §4.1)
//---------------------------------------------------------------------
//
// The canonical byte image of any signable value is:
//   UTF-8 type name || "::" || fixed-width little-endian fields in
//   declared order.
// This prevents cross-type signature confusion: a signature over one
// nominal type never verifies against a structurally similar one.

func canonicalHeader(typeName string) *bytes.Buffer {
	buf := &bytes.Buffer{}
	buf.WriteString(typeName)
	buf.WriteString("::")
	return buf
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
