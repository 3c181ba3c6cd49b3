package core

import "sort"

// Committee is the fixed weighted membership for a run (spec.md §3). It is
// stable for the lifetime of a process: no member is added or removed once
// constructed.
type Committee struct {
	order   []PubKey
	weights map[PubKey]uint64
	total   uint64
}

// NewCommittee builds a Committee from an ordered authority list. The order
// given is preserved for deterministic iteration (e.g. relayer dispatch).
func NewCommittee(members []PubKey, weight map[PubKey]uint64) *Committee {
	c := &Committee{
		order:   append([]PubKey(nil), members...),
		weights: make(map[PubKey]uint64, len(members)),
	}
	for _, m := range members {
		w := weight[m]
		c.weights[m] = w
		c.total += w
	}
	return c
}

// Weight returns 0 for non-members, matching spec.md §4.2.
func (c *Committee) Weight(a PubKey) uint64 {
	return c.weights[a]
}

// Members returns the committee in its declared order.
func (c *Committee) Members() []PubKey {
	return append([]PubKey(nil), c.order...)
}

// TotalVotes is the sum of all member weights.
func (c *Committee) TotalVotes() uint64 { return c.total }

// QuorumThreshold is ⌊2·total/3⌋ + 1: the minimum weight to certify.
func (c *Committee) QuorumThreshold() uint64 {
	return 2*c.total/3 + 1
}

// ValidityThreshold is ⌊(total+2)/3⌋: the maximum tolerable faulty weight.
func (c *Committee) ValidityThreshold() uint64 {
	return (c.total + 2) / 3
}

// GetStrongMajorityLowerBound returns the largest V such that authorities
// reporting a value >= V sum to at least the quorum threshold, or the zero
// value of V if no such bound meets quorum even at the lowest reported
// value. Used by the relayer to consolidate a monotone quantity (e.g. a
// highest-seen sequence number) reported inconsistently across authorities
// (spec.md §4.2).
func (c *Committee) GetStrongMajorityLowerBound(votes map[PubKey]uint64) uint64 {
	type entry struct {
		value  uint64
		weight uint64
	}
	entries := make([]entry, 0, len(votes))
	for authority, value := range votes {
		w := c.Weight(authority)
		if w == 0 {
			continue
		}
		entries = append(entries, entry{value: value, weight: w})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].value > entries[j].value })

	quorum := c.QuorumThreshold()
	var acc uint64
	for _, e := range entries {
		acc += e.weight
		if acc >= quorum {
			return e.value
		}
	}
	return 0
}
