// Package diff partitions desired and current resource sets by name.
//
// Every resource client reconciles the same way: whatever is desired but not
// deployed gets created, whatever is deployed but not desired gets deleted,
// and whatever exists on both sides is a candidate for an in-place update.
package diff

// Named is implemented by resources that are identified by a name.
type Named interface {
	DiffName() string
}

// Match pairs a desired resource with its deployed counterpart.
type Match[D, C Named] struct {
	Desired D
	Current C
}

// Result is the three-way partition of a desired/current comparison.
type Result[D, C Named] struct {
	// Missing is desired but not deployed; to be created.
	Missing []D

	// Surplus is deployed but not desired; to be deleted.
	Surplus []C

	// Existing is present on both sides; candidate for update.
	Existing []Match[D, C]
}

// ByName compares two resource lists by name equality. Names listed in safe
// are never reported as surplus, so callers can protect resources that live
// outside the declared set. No ordering is guaranteed on the output lists.
func ByName[D, C Named](desired []D, current []C, safe ...string) Result[D, C] {
	protected := make(map[string]bool, len(safe))
	for _, name := range safe {
		protected[name] = true
	}

	currentByName := make(map[string]C, len(current))
	for _, c := range current {
		currentByName[c.DiffName()] = c
	}

	var result Result[D, C]
	seen := make(map[string]bool, len(desired))
	for _, d := range desired {
		seen[d.DiffName()] = true
		if c, ok := currentByName[d.DiffName()]; ok {
			result.Existing = append(result.Existing, Match[D, C]{Desired: d, Current: c})
		} else {
			result.Missing = append(result.Missing, d)
		}
	}

	for _, c := range current {
		if !seen[c.DiffName()] && !protected[c.DiffName()] {
			result.Surplus = append(result.Surplus, c)
		}
	}

	return result
}
