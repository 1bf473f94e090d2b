package progression

// RaiseLevel adds increase to current and saturates at max. A non-positive
// increase leaves the level untouched, so the result is never below current.
func RaiseLevel(current, increase, max int) int {
	if increase <= 0 {
		return current
	}
	next := current + increase
	if next > max {
		next = max
	}
	if next < current {
		return current
	}
	return next
}

// GrantArtifact adds a to owned unless an artifact with the same id is
// already there. The returned slice is always a fresh copy; added reports
// whether the artifact was new.
func GrantArtifact(owned []Artifact, a Artifact) (out []Artifact, added bool) {
	out = make([]Artifact, 0, len(owned)+1)
	out = append(out, owned...)
	for _, o := range owned {
		if o.ID == a.ID {
			return out, false
		}
	}
	return append(out, a), true
}
