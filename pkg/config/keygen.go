package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"xchain-bridge/core"
)

// GenerateConfigParams mirrors the generate-config CLI flags (spec.md §6).
type GenerateConfigParams struct {
	NumAuthorities int
	NumShards      uint32
	Host           string
	BasePort       uint16
	PortStep       uint16
	OutputDir      string
}

// GenerateConfig creates a committee descriptor and one authority
// descriptor per authority, each with a freshly generated Ed25519 key pair,
// and writes them under OutputDir.
func GenerateConfig(p GenerateConfigParams) error {
	if p.NumAuthorities <= 0 {
		return core.NewError(core.ErrConfigurationError, "num-authorities must be positive")
	}
	if p.NumShards == 0 {
		return core.NewError(core.ErrConfigurationError, "num-shards must be positive")
	}
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return core.WrapError(core.ErrConfigurationError, "create output dir", err)
	}

	committee := CommitteeDescriptor{}
	keyPairs := make([]core.KeyPair, p.NumAuthorities)

	for i := 0; i < p.NumAuthorities; i++ {
		kp, err := core.GenerateKeyPair()
		if err != nil {
			return core.WrapError(core.ErrConfigurationError, "generate key pair", err)
		}
		keyPairs[i] = kp
		port := p.BasePort + uint16(i)*p.PortStep
		committee.Authorities = append(committee.Authorities, AuthorityEntry{
			Name:      kp.PublicKey().String(),
			Host:      p.Host,
			Port:      port,
			Weight:    1,
			NumShards: p.NumShards,
		})
	}

	committeePath := filepath.Join(p.OutputDir, "committee.json")
	if err := writeJSON(committeePath, committee); err != nil {
		return err
	}
	// A YAML mirror is written alongside the canonical JSON descriptor for
	// operators who prefer to diff deployments in YAML; only the JSON file
	// is ever read back by server/relayer.
	if err := writeYAML(filepath.Join(p.OutputDir, "committee.yaml"), committee); err != nil {
		return err
	}

	for i, kp := range keyPairs {
		seed := kp.Seed()
		seedHex := hex.EncodeToString(seed[:])
		ad := AuthorityDescriptor{
			Name:      kp.PublicKey().String(),
			SecretKey: seedHex,
			Committee: committeePath,
		}
		path := filepath.Join(p.OutputDir, fmt.Sprintf("authority-%d.json", i))
		if err := writeJSON(path, ad); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return core.WrapError(core.ErrConfigurationError, "marshal "+path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return core.WrapError(core.ErrConfigurationError, "write "+path, err)
	}
	return nil
}

func writeYAML(path string, v interface{}) error {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return core.WrapError(core.ErrConfigurationError, "marshal "+path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return core.WrapError(core.ErrConfigurationError, "write "+path, err)
	}
	return nil
}
