// Package config loads the two persisted JSON descriptors that configure a
// bridge deployment (spec.md §6): the committee descriptor shared by every
// authority and relayer, and each authority's own key/committee pointer.
package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"xchain-bridge/core"
)

// AuthorityEntry is one committee member as persisted in a committee
// descriptor file.
type AuthorityEntry struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Port      uint16 `json:"port"`
	Weight    uint64 `json:"weight"`
	NumShards uint32 `json:"num_shards"`
}

// CommitteeDescriptor is the persisted JSON object naming every authority
// in the committee (spec.md §6).
type CommitteeDescriptor struct {
	Authorities []AuthorityEntry `json:"authorities"`
}

// LoadCommitteeDescriptor reads and validates a committee descriptor file.
func LoadCommitteeDescriptor(path string) (*CommitteeDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigurationError, "read committee descriptor", err)
	}
	var d CommitteeDescriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, core.WrapError(core.ErrConfigurationError, "parse committee descriptor", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks that every entry is well-formed and names are unique.
func (d *CommitteeDescriptor) Validate() error {
	if len(d.Authorities) == 0 {
		return core.NewError(core.ErrConfigurationError, "committee descriptor has no authorities")
	}
	seen := make(map[string]struct{}, len(d.Authorities))
	for _, a := range d.Authorities {
		if _, err := core.ParsePubKey(a.Name); err != nil {
			return core.WrapError(core.ErrConfigurationError, "authority name "+a.Name, err)
		}
		if _, dup := seen[a.Name]; dup {
			return core.NewError(core.ErrConfigurationError, "duplicate authority "+a.Name)
		}
		seen[a.Name] = struct{}{}
		if a.Weight == 0 {
			return core.NewError(core.ErrConfigurationError, "authority "+a.Name+" has zero weight")
		}
		if a.NumShards == 0 {
			return core.NewError(core.ErrConfigurationError, "authority "+a.Name+" has zero num_shards")
		}
	}
	return nil
}

// Committee builds the core.Committee this descriptor describes.
func (d *CommitteeDescriptor) Committee() (*core.Committee, error) {
	members := make([]core.PubKey, 0, len(d.Authorities))
	weights := make(map[core.PubKey]uint64, len(d.Authorities))
	for _, a := range d.Authorities {
		pk, err := core.ParsePubKey(a.Name)
		if err != nil {
			return nil, core.WrapError(core.ErrConfigurationError, "authority name", err)
		}
		members = append(members, pk)
		weights[pk] = a.Weight
	}
	return core.NewCommittee(members, weights), nil
}

// Endpoint returns "host:port+shard" for one shard of one authority.
func (e AuthorityEntry) Endpoint(shard core.ShardId) string {
	return fmt.Sprintf("%s:%d", e.Host, uint32(e.Port)+uint32(shard))
}

// AuthorityDescriptor is the persisted JSON document each authority loads
// at startup: its identity, secret material, and a pointer to the shared
// committee descriptor (spec.md §6).
type AuthorityDescriptor struct {
	Name      string `json:"name"`
	SecretKey string `json:"secret_key"`
	Committee string `json:"committee"`
}

// LoadAuthorityDescriptor reads an authority descriptor file and resolves
// its secret key, which may be an inline hex seed or a path to a JSON
// string containing one.
func LoadAuthorityDescriptor(path string) (*AuthorityDescriptor, core.KeyPair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, core.KeyPair{}, core.WrapError(core.ErrConfigurationError, "read authority descriptor", err)
	}
	var d AuthorityDescriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, core.KeyPair{}, core.WrapError(core.ErrConfigurationError, "parse authority descriptor", err)
	}

	seedHex := d.SecretKey
	if _, err := hex.DecodeString(seedHex); err != nil || len(seedHex) != 64 {
		// Not a bare hex seed: treat SecretKey as a path to a JSON string.
		secretRaw, rerr := os.ReadFile(d.SecretKey)
		if rerr != nil {
			return nil, core.KeyPair{}, core.WrapError(core.ErrConfigurationError, "read secret key file", rerr)
		}
		if jerr := json.Unmarshal(secretRaw, &seedHex); jerr != nil {
			return nil, core.KeyPair{}, core.WrapError(core.ErrConfigurationError, "parse secret key file", jerr)
		}
	}

	seedBytes, err := hex.DecodeString(seedHex)
	if err != nil || len(seedBytes) != 32 {
		return nil, core.KeyPair{}, core.NewError(core.ErrConfigurationError, "secret key must be a 32-byte hex seed")
	}
	var seed [32]byte
	copy(seed[:], seedBytes)
	kp := core.NewKeyPair(seed)

	name, err := core.ParsePubKey(d.Name)
	if err != nil {
		return nil, core.KeyPair{}, core.WrapError(core.ErrConfigurationError, "authority name", err)
	}
	if name != kp.PublicKey() {
		return nil, core.KeyPair{}, core.NewError(core.ErrConfigurationError, "descriptor name does not match derived public key")
	}
	return &d, kp, nil
}
