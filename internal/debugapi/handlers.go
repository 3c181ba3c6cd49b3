// Package debugapi exposes a read-only HTTP introspection surface for one
// authority replica: health and per-shard occupancy. It never touches the
// voting path — every handler here only reads state already held by
// core.BridgeAuthorityState (spec.md is silent on operator tooling; this is
// a SPEC_FULL.md supplement grounded in the teacher's read-only bridge
// listing endpoints).
package debugapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"xchain-bridge/core"
)

type shardStatus struct {
	ShardID   uint32 `json:"shard_id"`
	Processed int    `json:"processed"`
	Pending   int    `json:"pending"`
}

// NewRouter builds the debug router for replica.
func NewRouter(replica *core.BridgeAuthorityState) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/shards", func(w http.ResponseWriter, _ *http.Request) {
		ids := replica.ShardIDs()
		out := make([]shardStatus, 0, len(ids))
		for _, id := range ids {
			processed, pending, ok := replica.ShardSnapshot(id)
			if !ok {
				continue
			}
			out = append(out, shardStatus{ShardID: uint32(id), Processed: processed, Pending: pending})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
	return r
}
