package core

// Tagged is a transaction record annotated with the partition it came from.
type Tagged[T any] struct {
	Record     T
	Provenance Provenance
}

// CombinedView merges the active channel's own records with the shared pool.
// Own records are tagged personal, shared ones shared; when the active
// channel is itself the shared channel its records appear once, all tagged
// shared. Source order is preserved and no cross-source reordering happens.
// Only the active and shared partitions of byChannel are consulted, so one
// user's view can never leak another user's private records.
func CombinedView[T any](active Channel, byChannel map[Channel][]T) []Tagged[T] {
	own := byChannel[active]
	if active.IsShared() {
		out := make([]Tagged[T], 0, len(own))
		for _, r := range own {
			out = append(out, Tagged[T]{Record: r, Provenance: ProvenanceShared})
		}
		return out
	}

	shared := byChannel[SharedChannel]
	out := make([]Tagged[T], 0, len(own)+len(shared))
	for _, r := range own {
		out = append(out, Tagged[T]{Record: r, Provenance: ProvenancePersonal})
	}
	for _, r := range shared {
		out = append(out, Tagged[T]{Record: r, Provenance: ProvenanceShared})
	}
	return out
}

// Records strips provenance tags, preserving order.
func Records[T any](tagged []Tagged[T]) []T {
	out := make([]T, len(tagged))
	for i, t := range tagged {
		out[i] = t.Record
	}
	return out
}
