package core

import "fmt"

// ErrorKind is one tag per error kind, stable across the wire (spec.md §7).
type ErrorKind uint8

const (
	ErrInvalidSignature ErrorKind = iota + 1
	ErrUnknownSigner
	ErrCertificateRequiresQuorum
	ErrCertificateAuthorityReuse
	ErrCertificateAlreadyExists
	ErrInvalidTransferAmount
	ErrWrongShard
	ErrShardStateNotFound
	ErrInvalidCrossShardUpdate
	ErrInvalidDecoding
	ErrUnexpectedMessage
	ErrCommunicationError
	ErrConfigurationError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidSignature:
		return "InvalidSignature"
	case ErrUnknownSigner:
		return "UnknownSigner"
	case ErrCertificateRequiresQuorum:
		return "CertificateRequiresQuorum"
	case ErrCertificateAuthorityReuse:
		return "CertificateAuthorityReuse"
	case ErrCertificateAlreadyExists:
		return "CertificateAlreadyExists"
	case ErrInvalidTransferAmount:
		return "InvalidTransferAmount"
	case ErrWrongShard:
		return "WrongShard"
	case ErrShardStateNotFound:
		return "ShardStateNotFound"
	case ErrInvalidCrossShardUpdate:
		return "InvalidCrossShardUpdate"
	case ErrInvalidDecoding:
		return "InvalidDecoding"
	case ErrUnexpectedMessage:
		return "UnexpectedMessage"
	case ErrCommunicationError:
		return "CommunicationError"
	case ErrConfigurationError:
		return "ConfigurationError"
	default:
		return "Unknown"
	}
}

// BridgeError carries a stable ErrorKind plus human detail, and unwraps to
// any underlying cause so callers can still use errors.Is/As.
type BridgeError struct {
	Kind   ErrorKind
	Detail string
	Cause  error
}

func NewError(kind ErrorKind, detail string) *BridgeError {
	return &BridgeError{Kind: kind, Detail: detail}
}

func WrapError(kind ErrorKind, detail string, cause error) *BridgeError {
	return &BridgeError{Kind: kind, Detail: detail, Cause: cause}
}

func (e *BridgeError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *BridgeError) Unwrap() error { return e.Cause }

// KindOf extracts the ErrorKind from err, or 0 if err is not a *BridgeError.
func KindOf(err error) ErrorKind {
	be, ok := err.(*BridgeError)
	if !ok {
		return 0
	}
	return be.Kind
}
