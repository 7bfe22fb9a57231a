package decision

// Override tunes one rule by id: drop it from the chain or move its
// priority. The default rule cannot be disabled; NewEngine rejects the
// resulting chain if it is.
type Override struct {
	ID       string
	Disabled bool
	Priority *int
}

// ApplyOverrides returns a new chain with the overrides applied. Unknown
// rule ids are ignored.
func ApplyOverrides(rules []Rule, overrides []Override) []Rule {
	byID := make(map[string]Override, len(overrides))
	for _, o := range overrides {
		byID[o.ID] = o
	}

	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		o, ok := byID[r.ID]
		if !ok {
			out = append(out, r)
			continue
		}
		if o.Disabled {
			continue
		}
		if o.Priority != nil {
			r.Priority = *o.Priority
		}
		out = append(out, r)
	}
	return out
}
