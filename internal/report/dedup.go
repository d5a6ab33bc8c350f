package report

import "github.com/joss/xbrlgraph/internal/domain"

// Deduplicator picks one primary fact per (concept, context, unit) key.
//
// The duplicate map stays flat: every loser points at the live primary of
// its key. When a better candidate displaces a primary, the reverse index
// repoints the displaced primary's losers too.
type Deduplicator struct {
	primary    map[string]*domain.Fact // canonical key -> primary
	duplicates map[string]string       // duplicate id -> primary id
	losers     map[string][]string     // primary id -> duplicate ids
	byID       map[string]*domain.Fact
}

// NewDeduplicator creates an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		primary:    make(map[string]*domain.Fact),
		duplicates: make(map[string]string),
		losers:     make(map[string][]string),
		byID:       make(map[string]*domain.Fact),
	}
}

// Add offers f as a candidate for its key. Adding a fact already seen is a
// no-op.
func (d *Deduplicator) Add(f *domain.Fact) {
	d.byID[f.ID] = f
	key := f.CanonicalKey()

	current, ok := d.primary[key]
	if !ok {
		d.primary[key] = f
		return
	}
	if current.ID == f.ID {
		return
	}
	if _, seen := d.duplicates[f.ID]; seen {
		return
	}

	if !beats(f, current) {
		d.demote(f.ID, current.ID)
		return
	}

	d.primary[key] = f
	moved := d.losers[current.ID]
	delete(d.losers, current.ID)
	d.demote(current.ID, f.ID)
	for _, id := range moved {
		d.demote(id, f.ID)
	}
}

// AddAll offers every fact in order.
func (d *Deduplicator) AddAll(facts []*domain.Fact) {
	for _, f := range facts {
		d.Add(f)
	}
}

func (d *Deduplicator) demote(loser, winner string) {
	d.duplicates[loser] = winner
	d.losers[winner] = append(d.losers[winner], loser)
}

// beats reports whether candidate should replace current. Higher decimals
// win; on a tie more significant digits win; otherwise current stays.
func beats(candidate, current *domain.Fact) bool {
	cp, pp := candidate.Precision(), current.Precision()
	if cp != pp {
		return cp > pp
	}
	return candidate.SignificantDigits() > current.SignificantDigits()
}

// IsPrimary reports whether f never lost to another fact.
func (d *Deduplicator) IsPrimary(f *domain.Fact) bool {
	_, dup := d.duplicates[f.ID]
	return !dup
}

// PrimaryOf resolves f to the primary fact of its key in one hop.
func (d *Deduplicator) PrimaryOf(f *domain.Fact) *domain.Fact {
	id, dup := d.duplicates[f.ID]
	if !dup {
		return f
	}
	if p, ok := d.byID[id]; ok {
		return p
	}
	return f
}

// Duplicates returns the number of facts that lost to another.
func (d *Deduplicator) Duplicates() int {
	return len(d.duplicates)
}

// Primaries returns the number of distinct keys.
func (d *Deduplicator) Primaries() int {
	return len(d.primary)
}
