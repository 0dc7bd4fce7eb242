package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// The three fixed governance groups. A mint request is executable only
// once one signer from each group has approved it.
const (
	GroupWill   = "will"
	GroupWisdom = "wisdom"
	GroupLove   = "love"
)

// GovernanceGroups lists every group, in display order.
var GovernanceGroups = []string{GroupWill, GroupWisdom, GroupLove}

// GovernanceSigner maps one wallet address to its governance group.
type GovernanceSigner struct {
	Address string `json:"address"`
	Group   string `json:"group"`
	Name    string `json:"name"`
}

// SignerSet is the immutable signer-to-group mapping, loaded once at
// startup from out-of-band configuration and never mutated afterwards.
type SignerSet struct {
	byAddress map[string]GovernanceSigner
}

// LoadSigners parses the signer mapping from inline JSON or, if empty,
// from the given file path. At least one signer per governance group is
// required; unknown groups and duplicate addresses are configuration
// errors.
func LoadSigners(inlineJSON, filePath string) (*SignerSet, error) {
	raw := []byte(inlineJSON)
	if len(raw) == 0 {
		if filePath == "" {
			return nil, fmt.Errorf("governance signers must be configured")
		}
		fileRaw, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read signers file: %w", err)
		}
		raw = fileRaw
	}

	var signers []GovernanceSigner
	if err := json.Unmarshal(raw, &signers); err != nil {
		return nil, fmt.Errorf("failed to parse signers config: %w", err)
	}

	set := &SignerSet{byAddress: make(map[string]GovernanceSigner, len(signers))}
	groupsSeen := make(map[string]bool, len(GovernanceGroups))

	for _, signer := range signers {
		address := normalizeAddress(signer.Address)
		if address == "" {
			return nil, fmt.Errorf("signer %q has no address", signer.Name)
		}
		if !isGovernanceGroup(signer.Group) {
			return nil, fmt.Errorf("signer %s has unknown group %q", signer.Address, signer.Group)
		}
		if _, exists := set.byAddress[address]; exists {
			return nil, fmt.Errorf("duplicate signer address %s", signer.Address)
		}

		signer.Address = address
		set.byAddress[address] = signer
		groupsSeen[signer.Group] = true
	}

	for _, group := range GovernanceGroups {
		if !groupsSeen[group] {
			return nil, fmt.Errorf("no signer configured for group %q", group)
		}
	}

	return set, nil
}

// Resolve returns the governance signer registered under the address.
func (s *SignerSet) Resolve(address string) (GovernanceSigner, bool) {
	signer, ok := s.byAddress[normalizeAddress(address)]
	return signer, ok
}

func isGovernanceGroup(group string) bool {
	for _, g := range GovernanceGroups {
		if g == group {
			return true
		}
	}
	return false
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
