package core

import "fmt"

// AuthoritySignature pairs one authority with its signature over a
// transfer, as carried inside a certificate.
type AuthoritySignature struct {
	Authority PubKey
	Signature Signature
}

// CertifiedCrossChainTransferOrder is an order together with the set of
// authority signatures that certify it (spec.md §3).
type CertifiedCrossChainTransferOrder struct {
	Order      CrossChainTransferOrder
	Signatures []AuthoritySignature
}

// Check independently re-validates every invariant required of a
// certificate: authorities pairwise distinct, every authority a
// positive-weight committee member, the weight sum meeting quorum, and
// every signature (inner sender plus every authority) verifying.
// Signatures are verified one at a time, sender first, and the first
// failure rejects the whole certificate; no batch verification is
// performed, so the cost grows with the number of signatures.
func (c CertifiedCrossChainTransferOrder) Check(committee *Committee) error {
	seen := make(map[PubKey]struct{}, len(c.Signatures))
	var weight uint64
	for _, as := range c.Signatures {
		if _, dup := seen[as.Authority]; dup {
			return NewError(ErrCertificateAuthorityReuse, as.Authority.String())
		}
		seen[as.Authority] = struct{}{}
		w := committee.Weight(as.Authority)
		if w == 0 {
			return NewError(ErrUnknownSigner, as.Authority.String())
		}
		weight += w
	}
	if weight < committee.QuorumThreshold() {
		return NewError(ErrCertificateRequiresQuorum, fmt.Sprintf("weight %d < quorum %d", weight, committee.QuorumThreshold()))
	}

	canonical := c.Order.Transfer.CanonicalBytes()
	if !VerifySignature(c.Order.Transfer.Sender, canonical, c.Order.SenderSig) {
		return NewError(ErrInvalidSignature, "sender signature")
	}
	for _, as := range c.Signatures {
		if !VerifySignature(as.Authority, canonical, as.Signature) {
			return NewError(ErrInvalidSignature, fmt.Sprintf("authority %s signature", as.Authority))
		}
	}
	return nil
}

// CertificateAggregator accumulates per-authority votes for a single order
// until quorum is reached (spec.md §4.3).
type CertificateAggregator struct {
	order     CrossChainTransferOrder
	committee *Committee
	seen      map[PubKey]struct{}
	sigs      []AuthoritySignature
	weight    uint64
}

// NewCertificateAggregator opens an aggregator for order. If
// skipInnerCheck is false the sender signature is verified immediately;
// pass true only when the caller has already verified it.
func NewCertificateAggregator(order CrossChainTransferOrder, committee *Committee, skipInnerCheck bool) (*CertificateAggregator, error) {
	if !skipInnerCheck && !order.VerifySenderSignature() {
		return nil, NewError(ErrInvalidSignature, "sender signature")
	}
	return &CertificateAggregator{
		order:     order,
		committee: committee,
		seen:      make(map[PubKey]struct{}),
	}, nil
}

// Append records one authority's vote. It returns the completed certificate
// the first time accumulated weight reaches quorum, and (nil, nil)
// otherwise. Further appends after completion are undefined per spec.md
// §4.3 and are rejected here as authority reuse if the same authority votes
// twice, but are not required to be called at all once a certificate has
// been produced.
func (a *CertificateAggregator) Append(authority PubKey, sig Signature) (*CertifiedCrossChainTransferOrder, error) {
	if _, dup := a.seen[authority]; dup {
		return nil, NewError(ErrCertificateAuthorityReuse, authority.String())
	}
	w := a.committee.Weight(authority)
	if w == 0 {
		return nil, NewError(ErrUnknownSigner, authority.String())
	}
	if !VerifySignature(authority, a.order.Transfer.CanonicalBytes(), sig) {
		return nil, NewError(ErrInvalidSignature, fmt.Sprintf("authority %s signature", authority))
	}

	a.seen[authority] = struct{}{}
	a.sigs = append(a.sigs, AuthoritySignature{Authority: authority, Signature: sig})
	a.weight += w

	if a.weight < a.committee.QuorumThreshold() {
		return nil, nil
	}
	cert := &CertifiedCrossChainTransferOrder{
		Order:      a.order,
		Signatures: append([]AuthoritySignature(nil), a.sigs...),
	}
	return cert, nil
}

// Weight returns the currently accumulated weight.
func (a *CertificateAggregator) Weight() uint64 { return a.weight }
