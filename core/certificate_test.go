package core

import "testing"

func buildOrder(t *testing.T, sender KeyPair, nonce uint64) CrossChainTransferOrder {
	t.Helper()
	recipient := seededKeyPair(t, 50).PublicKey()
	tokenMint := seededKeyPair(t, 51).PublicKey()
	escrow := seededKeyPair(t, 52).PublicKey()
	transfer := NewCrossChainTransfer(1, 2, sender.PublicKey(), recipient, 1000, tokenMint, escrow, nonce)
	return NewCrossChainTransferOrder(transfer, sender)
}

// Four equally-weighted authorities: quorum = 3.
func fourAuthorityCommittee(t *testing.T) (*Committee, []KeyPair) {
	return committeeOfSize(t, 4, func(int) uint64 { return 1 })
}

func TestAggregatorCompletesExactlyAtQuorum(t *testing.T) {
	committee, authorities := fourAuthorityCommittee(t)
	sender := seededKeyPair(t, 100)
	order := buildOrder(t, sender, 0)

	agg, err := NewCertificateAggregator(order, committee, false)
	if err != nil {
		t.Fatalf("NewCertificateAggregator: %v", err)
	}

	canonical := order.Transfer.CanonicalBytes()
	var cert *CertifiedCrossChainTransferOrder
	for i := 0; i < 2; i++ {
		sig := authorities[i].Sign(canonical)
		cert, err = agg.Append(authorities[i].PublicKey(), sig)
		if err != nil {
			t.Fatalf("Append authority %d: %v", i, err)
		}
		if cert != nil {
			t.Fatalf("certificate completed early after %d votes (weight %d)", i+1, agg.Weight())
		}
	}

	// Third vote reaches quorum (weight 3 of total 4).
	sig := authorities[2].Sign(canonical)
	cert, err = agg.Append(authorities[2].PublicKey(), sig)
	if err != nil {
		t.Fatalf("Append third authority: %v", err)
	}
	if cert == nil {
		t.Fatalf("expected certificate to complete at quorum, got nil")
	}
	if err := cert.Check(committee); err != nil {
		t.Fatalf("completed certificate failed Check: %v", err)
	}
}

func TestAggregatorRejectsDuplicateAuthority(t *testing.T) {
	committee, authorities := fourAuthorityCommittee(t)
	sender := seededKeyPair(t, 101)
	order := buildOrder(t, sender, 0)
	agg, err := NewCertificateAggregator(order, committee, false)
	if err != nil {
		t.Fatalf("NewCertificateAggregator: %v", err)
	}
	canonical := order.Transfer.CanonicalBytes()
	sig := authorities[0].Sign(canonical)
	if _, err := agg.Append(authorities[0].PublicKey(), sig); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if _, err := agg.Append(authorities[0].PublicKey(), sig); KindOf(err) != ErrCertificateAuthorityReuse {
		t.Fatalf("expected ErrCertificateAuthorityReuse on replayed vote, got %v", err)
	}
}

func TestAggregatorRejectsUnknownSigner(t *testing.T) {
	committee, _ := fourAuthorityCommittee(t)
	sender := seededKeyPair(t, 102)
	order := buildOrder(t, sender, 0)
	agg, err := NewCertificateAggregator(order, committee, false)
	if err != nil {
		t.Fatalf("NewCertificateAggregator: %v", err)
	}
	stranger := seededKeyPair(t, 210)
	sig := stranger.Sign(order.Transfer.CanonicalBytes())
	if _, err := agg.Append(stranger.PublicKey(), sig); KindOf(err) != ErrUnknownSigner {
		t.Fatalf("expected ErrUnknownSigner, got %v", err)
	}
}

func TestAggregatorRejectsBadSignature(t *testing.T) {
	committee, authorities := fourAuthorityCommittee(t)
	sender := seededKeyPair(t, 103)
	order := buildOrder(t, sender, 0)
	agg, err := NewCertificateAggregator(order, committee, false)
	if err != nil {
		t.Fatalf("NewCertificateAggregator: %v", err)
	}
	var badSig Signature
	if _, err := agg.Append(authorities[0].PublicKey(), badSig); KindOf(err) != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature for garbage signature, got %v", err)
	}
}

func TestNewCertificateAggregatorRejectsBadSenderSignature(t *testing.T) {
	committee, _ := fourAuthorityCommittee(t)
	sender := seededKeyPair(t, 104)
	order := buildOrder(t, sender, 0)
	order.SenderSig[0] ^= 0xFF
	if _, err := NewCertificateAggregator(order, committee, false); KindOf(err) != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature for tampered sender signature, got %v", err)
	}
}

func TestCertificateCheckRejectsBelowQuorum(t *testing.T) {
	committee, authorities := fourAuthorityCommittee(t)
	sender := seededKeyPair(t, 105)
	order := buildOrder(t, sender, 0)
	canonical := order.Transfer.CanonicalBytes()
	cert := CertifiedCrossChainTransferOrder{
		Order: order,
		Signatures: []AuthoritySignature{
			{Authority: authorities[0].PublicKey(), Signature: authorities[0].Sign(canonical)},
		},
	}
	if err := cert.Check(committee); KindOf(err) != ErrCertificateRequiresQuorum {
		t.Fatalf("expected ErrCertificateRequiresQuorum, got %v", err)
	}
}

func TestCertificateCheckRejectsDuplicateAuthorities(t *testing.T) {
	committee, authorities := fourAuthorityCommittee(t)
	sender := seededKeyPair(t, 106)
	order := buildOrder(t, sender, 0)
	canonical := order.Transfer.CanonicalBytes()
	sig := authorities[0].Sign(canonical)
	cert := CertifiedCrossChainTransferOrder{
		Order: order,
		Signatures: []AuthoritySignature{
			{Authority: authorities[0].PublicKey(), Signature: sig},
			{Authority: authorities[0].PublicKey(), Signature: sig},
			{Authority: authorities[1].PublicKey(), Signature: authorities[1].Sign(canonical)},
		},
	}
	if err := cert.Check(committee); KindOf(err) != ErrCertificateAuthorityReuse {
		t.Fatalf("expected ErrCertificateAuthorityReuse, got %v", err)
	}
}
