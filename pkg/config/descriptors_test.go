package config

import (
	"strings"
	"testing"
)

func TestValidateRejectsEmptyCommittee(t *testing.T) {
	d := CommitteeDescriptor{}
	if err := d.Validate(); err == nil {
		t.Fatalf("expected error for empty committee")
	}
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	name := strings.Repeat("ab", 32)
	d := CommitteeDescriptor{Authorities: []AuthorityEntry{
		{Name: name, Host: "h", Port: 1, Weight: 1, NumShards: 1},
		{Name: name, Host: "h", Port: 2, Weight: 1, NumShards: 1},
	}}
	if err := d.Validate(); err == nil {
		t.Fatalf("expected error for duplicate authority name")
	}
}

func TestValidateRejectsZeroWeight(t *testing.T) {
	name := strings.Repeat("cd", 32)
	d := CommitteeDescriptor{Authorities: []AuthorityEntry{
		{Name: name, Host: "h", Port: 1, Weight: 0, NumShards: 1},
	}}
	if err := d.Validate(); err == nil {
		t.Fatalf("expected error for zero weight")
	}
}

func TestValidateRejectsMalformedName(t *testing.T) {
	d := CommitteeDescriptor{Authorities: []AuthorityEntry{
		{Name: "not-hex", Host: "h", Port: 1, Weight: 1, NumShards: 1},
	}}
	if err := d.Validate(); err == nil {
		t.Fatalf("expected error for malformed pubkey name")
	}
}

func TestEndpointFormatsHostPortPlusShard(t *testing.T) {
	e := AuthorityEntry{Host: "10.0.0.1", Port: 9000}
	if got, want := e.Endpoint(3), "10.0.0.1:9003"; got != want {
		t.Fatalf("Endpoint = %q, want %q", got, want)
	}
}
