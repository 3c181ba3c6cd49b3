package config

import (
	"fmt"
	"path/filepath"
	"testing"
)

func TestGenerateConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := GenerateConfigParams{
		NumAuthorities: 4,
		NumShards:      8,
		Host:           "127.0.0.1",
		BasePort:       9000,
		PortStep:       100,
		OutputDir:      dir,
	}
	if err := GenerateConfig(p); err != nil {
		t.Fatalf("GenerateConfig: %v", err)
	}

	committeePath := filepath.Join(dir, "committee.json")
	descriptor, err := LoadCommitteeDescriptor(committeePath)
	if err != nil {
		t.Fatalf("LoadCommitteeDescriptor: %v", err)
	}
	if len(descriptor.Authorities) != 4 {
		t.Fatalf("expected 4 authorities, got %d", len(descriptor.Authorities))
	}

	committee, err := descriptor.Committee()
	if err != nil {
		t.Fatalf("Committee: %v", err)
	}
	if committee.TotalVotes() != 4 {
		t.Fatalf("expected total weight 4, got %d", committee.TotalVotes())
	}

	for i := 0; i < p.NumAuthorities; i++ {
		authorityPath := filepath.Join(dir, fmt.Sprintf("authority-%d.json", i))
		ad, kp, err := LoadAuthorityDescriptor(authorityPath)
		if err != nil {
			t.Fatalf("LoadAuthorityDescriptor(%d): %v", i, err)
		}
		if ad.Name != kp.PublicKey().String() {
			t.Fatalf("authority %d: descriptor name does not match derived key", i)
		}
		if committee.Weight(kp.PublicKey()) == 0 {
			t.Fatalf("authority %d: not present in generated committee", i)
		}
	}
}
