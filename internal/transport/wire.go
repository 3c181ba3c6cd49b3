// Package transport implements the UDP request/reply adapter (spec.md §4.7,
// §6): fixed-width little-endian wire encoding of a five-variant tagged
// union, framed over a best-effort datagram channel with a 64 KiB buffer.
// Reliability, retries and timeouts are left to the relayer; idempotency of
// the authority handlers makes retries safe.
package transport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"xchain-bridge/core"
)

// MaxDatagramSize is the fixed buffer every send/recv uses (spec.md §4.7).
const MaxDatagramSize = 64 * 1024

// MessageKind discriminates the five wire variants, in declaration order
// (spec.md §6).
type MessageKind uint32

const (
	KindTransferOrder MessageKind = iota
	KindSignedTransferOrder
	KindCertifiedTransferOrder
	KindCrossShardUpdate
	KindError
)

// Message is the tagged union carried by every datagram. Exactly one field
// matching Kind is meaningful.
type Message struct {
	Kind                   MessageKind
	TransferOrder          core.CrossChainTransferOrder
	SignedTransferOrder    core.SignedCrossChainTransferOrder
	CertifiedTransferOrder core.CertifiedCrossChainTransferOrder
	CrossShardUpdate       core.CrossShardCrossChainUpdate
	ErrorDetail            string
}

func TransferOrderMessage(o core.CrossChainTransferOrder) Message {
	return Message{Kind: KindTransferOrder, TransferOrder: o}
}

func SignedTransferOrderMessage(s core.SignedCrossChainTransferOrder) Message {
	return Message{Kind: KindSignedTransferOrder, SignedTransferOrder: s}
}

func CertifiedTransferOrderMessage(c core.CertifiedCrossChainTransferOrder) Message {
	return Message{Kind: KindCertifiedTransferOrder, CertifiedTransferOrder: c}
}

func CrossShardUpdateMessage(u core.CrossShardCrossChainUpdate) Message {
	return Message{Kind: KindCrossShardUpdate, CrossShardUpdate: u}
}

func ErrorMessage(detail string) Message {
	return Message{Kind: KindError, ErrorDetail: detail}
}

// Encode serializes m to its wire form: a u32 LE tag followed by the
// variant's fixed-width fields.
func Encode(m Message) ([]byte, error) {
	buf := &bytes.Buffer{}
	putU32(buf, uint32(m.Kind))
	switch m.Kind {
	case KindTransferOrder:
		putOrder(buf, m.TransferOrder)
	case KindSignedTransferOrder:
		putSignedOrder(buf, m.SignedTransferOrder)
	case KindCertifiedTransferOrder:
		putCertifiedOrder(buf, m.CertifiedTransferOrder)
	case KindCrossShardUpdate:
		putU32(buf, uint32(m.CrossShardUpdate.ShardID))
		putCertifiedOrder(buf, m.CrossShardUpdate.Certificate)
	case KindError:
		putVarBytes(buf, []byte(m.ErrorDetail))
	default:
		return nil, fmt.Errorf("unknown message kind %d", m.Kind)
	}
	if buf.Len() > MaxDatagramSize {
		return nil, fmt.Errorf("encoded message of %d bytes exceeds %d byte datagram limit", buf.Len(), MaxDatagramSize)
	}
	return buf.Bytes(), nil
}

// Decode parses raw into a Message. It returns InvalidDecoding on any
// malformed input, including an unrecognized tag — callers on the server
// side drop those silently per spec.md §4.7.
func Decode(raw []byte) (Message, error) {
	r := bytes.NewReader(raw)
	tag, err := getU32(r)
	if err != nil {
		return Message{}, core.WrapError(core.ErrInvalidDecoding, "tag", err)
	}
	switch MessageKind(tag) {
	case KindTransferOrder:
		o, err := getOrder(r)
		if err != nil {
			return Message{}, core.WrapError(core.ErrInvalidDecoding, "transfer order", err)
		}
		return TransferOrderMessage(o), nil
	case KindSignedTransferOrder:
		s, err := getSignedOrder(r)
		if err != nil {
			return Message{}, core.WrapError(core.ErrInvalidDecoding, "signed order", err)
		}
		return SignedTransferOrderMessage(s), nil
	case KindCertifiedTransferOrder:
		c, err := getCertifiedOrder(r)
		if err != nil {
			return Message{}, core.WrapError(core.ErrInvalidDecoding, "certified order", err)
		}
		return CertifiedTransferOrderMessage(c), nil
	case KindCrossShardUpdate:
		shardID, err := getU32(r)
		if err != nil {
			return Message{}, core.WrapError(core.ErrInvalidDecoding, "cross-shard update shard id", err)
		}
		c, err := getCertifiedOrder(r)
		if err != nil {
			return Message{}, core.WrapError(core.ErrInvalidDecoding, "cross-shard update certificate", err)
		}
		return CrossShardUpdateMessage(core.CrossShardCrossChainUpdate{ShardID: core.ShardId(shardID), Certificate: c}), nil
	case KindError:
		detail, err := getVarBytes(r)
		if err != nil {
			return Message{}, core.WrapError(core.ErrInvalidDecoding, "error detail", err)
		}
		return ErrorMessage(string(detail)), nil
	default:
		return Message{}, core.NewError(core.ErrInvalidDecoding, fmt.Sprintf("unrecognized tag %d", tag))
	}
}

//---------------------------------------------------------------------
// Primitive field codecs
//---------------------------------------------------------------------

func putU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func putFixed(buf *bytes.Buffer, b []byte) { buf.Write(b) }

func putVarBytes(buf *bytes.Buffer, b []byte) {
	putU32(buf, uint32(len(b)))
	buf.Write(b)
}

func getU16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func getU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func getU64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func getFixed(r *bytes.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func getVarBytes(r *bytes.Reader) ([]byte, error) {
	n, err := getU32(r)
	if err != nil {
		return nil, err
	}
	if n > MaxDatagramSize {
		return nil, fmt.Errorf("var bytes length %d exceeds datagram limit", n)
	}
	return getFixed(r, int(n))
}

//---------------------------------------------------------------------
// Domain-type codecs
//---------------------------------------------------------------------

func putPubKey(buf *bytes.Buffer, p core.PubKey)   { putFixed(buf, p[:]) }
func putSig(buf *bytes.Buffer, s core.Signature)    { putFixed(buf, s[:]) }
func putTxID(buf *bytes.Buffer, id core.InteropTxId) { putFixed(buf, id[:]) }

func getPubKey(r *bytes.Reader) (core.PubKey, error) {
	var p core.PubKey
	b, err := getFixed(r, len(p))
	if err != nil {
		return p, err
	}
	copy(p[:], b)
	return p, nil
}

func getSig(r *bytes.Reader) (core.Signature, error) {
	var s core.Signature
	b, err := getFixed(r, len(s))
	if err != nil {
		return s, err
	}
	copy(s[:], b)
	return s, nil
}

func getTxID(r *bytes.Reader) (core.InteropTxId, error) {
	var id core.InteropTxId
	b, err := getFixed(r, len(id))
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

func putTransfer(buf *bytes.Buffer, t core.CrossChainTransfer) {
	putU16(buf, uint16(t.SourceChain))
	putU16(buf, uint16(t.DestinationChain))
	putPubKey(buf, t.Sender)
	putPubKey(buf, t.Recipient)
	putU64(buf, t.Amount)
	putPubKey(buf, t.TokenMint)
	putTxID(buf, t.InteropTxId)
	putPubKey(buf, t.EscrowAccount)
	putU64(buf, t.Nonce)
}

func getTransfer(r *bytes.Reader) (core.CrossChainTransfer, error) {
	var t core.CrossChainTransfer
	source, err := getU16(r)
	if err != nil {
		return t, err
	}
	dest, err := getU16(r)
	if err != nil {
		return t, err
	}
	sender, err := getPubKey(r)
	if err != nil {
		return t, err
	}
	recipient, err := getPubKey(r)
	if err != nil {
		return t, err
	}
	amount, err := getU64(r)
	if err != nil {
		return t, err
	}
	tokenMint, err := getPubKey(r)
	if err != nil {
		return t, err
	}
	id, err := getTxID(r)
	if err != nil {
		return t, err
	}
	escrow, err := getPubKey(r)
	if err != nil {
		return t, err
	}
	nonce, err := getU64(r)
	if err != nil {
		return t, err
	}
	t = core.CrossChainTransfer{
		SourceChain:      core.ChainId(source),
		DestinationChain: core.ChainId(dest),
		Sender:           sender,
		Recipient:        recipient,
		Amount:           amount,
		TokenMint:        tokenMint,
		InteropTxId:      id,
		EscrowAccount:    escrow,
		Nonce:            nonce,
	}
	return t, nil
}

func putOrder(buf *bytes.Buffer, o core.CrossChainTransferOrder) {
	putTransfer(buf, o.Transfer)
	putSig(buf, o.SenderSig)
}

func getOrder(r *bytes.Reader) (core.CrossChainTransferOrder, error) {
	t, err := getTransfer(r)
	if err != nil {
		return core.CrossChainTransferOrder{}, err
	}
	sig, err := getSig(r)
	if err != nil {
		return core.CrossChainTransferOrder{}, err
	}
	return core.CrossChainTransferOrder{Transfer: t, SenderSig: sig}, nil
}

func putSignedOrder(buf *bytes.Buffer, s core.SignedCrossChainTransferOrder) {
	putOrder(buf, s.Order)
	putPubKey(buf, s.Authority)
	putSig(buf, s.AuthSig)
}

func getSignedOrder(r *bytes.Reader) (core.SignedCrossChainTransferOrder, error) {
	o, err := getOrder(r)
	if err != nil {
		return core.SignedCrossChainTransferOrder{}, err
	}
	authority, err := getPubKey(r)
	if err != nil {
		return core.SignedCrossChainTransferOrder{}, err
	}
	sig, err := getSig(r)
	if err != nil {
		return core.SignedCrossChainTransferOrder{}, err
	}
	return core.SignedCrossChainTransferOrder{Order: o, Authority: authority, AuthSig: sig}, nil
}

func putCertifiedOrder(buf *bytes.Buffer, c core.CertifiedCrossChainTransferOrder) {
	putOrder(buf, c.Order)
	putU32(buf, uint32(len(c.Signatures)))
	for _, as := range c.Signatures {
		putPubKey(buf, as.Authority)
		putSig(buf, as.Signature)
	}
}

func getCertifiedOrder(r *bytes.Reader) (core.CertifiedCrossChainTransferOrder, error) {
	o, err := getOrder(r)
	if err != nil {
		return core.CertifiedCrossChainTransferOrder{}, err
	}
	n, err := getU32(r)
	if err != nil {
		return core.CertifiedCrossChainTransferOrder{}, err
	}
	if n > MaxDatagramSize/96 {
		return core.CertifiedCrossChainTransferOrder{}, fmt.Errorf("signature count %d implausible", n)
	}
	sigs := make([]core.AuthoritySignature, 0, n)
	for i := uint32(0); i < n; i++ {
		authority, err := getPubKey(r)
		if err != nil {
			return core.CertifiedCrossChainTransferOrder{}, err
		}
		sig, err := getSig(r)
		if err != nil {
			return core.CertifiedCrossChainTransferOrder{}, err
		}
		sigs = append(sigs, core.AuthoritySignature{Authority: authority, Signature: sig})
	}
	return core.CertifiedCrossChainTransferOrder{Order: o, Signatures: sigs}, nil
}
