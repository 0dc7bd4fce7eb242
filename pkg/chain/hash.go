// Package chain wraps the EVM primitives the settlement engine needs:
// keccak256 evidence hashes, EIP-191 signature verification, and the
// read-only nonce call against the PPLP token contract.
package chain

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// EvidenceHash binds a mint request to the exact set of action kinds,
// owner, and creation time it settles. Kinds are deduplicated and sorted
// lexicographically before hashing so the digest is order-independent;
// the consuming contract verifies the same keccak256 digest on-chain.
func EvidenceHash(actionKinds []string, ownerID string, createdAt time.Time) string {
	seen := make(map[string]struct{}, len(actionKinds))
	kinds := make([]string, 0, len(actionKinds))
	for _, kind := range actionKinds {
		if _, ok := seen[kind]; ok {
			continue
		}
		seen[kind] = struct{}{}
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	payload := strings.Join(kinds, ",") + "|" + ownerID + "|" + strconv.FormatInt(createdAt.Unix(), 10)

	return hexutil.Encode(crypto.Keccak256([]byte(payload)))
}

// ActionHash returns the keccak256 digest of a reward-category name,
// the stable identifier the token contract recognises for this mint path.
func ActionHash(name string) string {
	return hexutil.Encode(crypto.Keccak256([]byte(name)))
}
