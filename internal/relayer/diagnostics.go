package relayer

import (
	"encoding/hex"
	"sort"

	"golang.org/x/crypto/blake2b"

	"xchain-bridge/core"
)

// pendingSetFingerprint hashes the sorted set of pending transfer ids with
// blake2b-256. It exists purely for log correlation: two relayer instances
// (or two rounds of the same instance) logging the same fingerprint are
// tracking the identical set of in-flight transfers, which is cheaper to eyeball
// in a log aggregator than a full id list. It is never used on the signing
// path, which stays SHA-512 per the wire format.
func pendingSetFingerprint(ids []core.InteropTxId) string {
	sorted := append([]core.InteropTxId(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool {
		return string(sorted[i][:]) < string(sorted[j][:])
	})
	h, _ := blake2b.New256(nil)
	for _, id := range sorted {
		h.Write(id[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
