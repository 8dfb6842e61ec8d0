package domain

import "sort"

// LatestPerMember reduces a set of holding snapshots to exactly one row per
// member: the snapshot with the greatest as-of date (ties broken by highest
// ID, i.e. the most recently written row). The result is ordered by member
// ID so downstream output is deterministic.
func LatestPerMember(holdings []*MemberHolding) []MemberHolding {
	latest := make(map[int64]*MemberHolding, len(holdings))
	for _, h := range holdings {
		if h == nil {
			continue
		}
		current, ok := latest[int64(h.MemberID)]
		if !ok {
			latest[int64(h.MemberID)] = h
			continue
		}
		if h.AsOfDate.After(current.AsOfDate) ||
			(h.AsOfDate.Equal(current.AsOfDate) && h.ID > current.ID) {
			latest[int64(h.MemberID)] = h
		}
	}

	result := make([]MemberHolding, 0, len(latest))
	for _, h := range latest {
		result = append(result, *h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MemberID < result[j].MemberID })
	return result
}
