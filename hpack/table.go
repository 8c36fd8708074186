package hpack

// DynamicTable is the HPACK dynamic table: an ordered sequence of header
// fields. New entries are appended at the end and indexed back-to-front
// (index 1 is the most recently inserted), so insertion is amortised O(1)
// and eviction is a FIFO pop from the front, realised here by copying the
// surviving entries down to the start of the slice rather than by manual
// ring-index arithmetic.
type DynamicTable struct {
	entries  []*HeaderField // oldest first, newest last
	size     int            // sum of Size() over all entries
	limit    int            // current size bound, <= maxLimit
	maxLimit int            // ceiling the limit may never exceed (the setting)
}

// NewDynamicTable returns an empty table bounded by maxLimit.
func NewDynamicTable(maxLimit int) *DynamicTable {
	return &DynamicTable{limit: maxLimit, maxLimit: maxLimit}
}

// Len returns the number of live entries.
func (t *DynamicTable) Len() int { return len(t.entries) }

// Size returns Σ(len(name)+len(value)+32) over live entries.
func (t *DynamicTable) Size() int { return t.size }

// Limit returns the current size bound.
func (t *DynamicTable) Limit() int { return t.limit }

// MaxLimit returns the ceiling set by the governing SETTINGS value.
func (t *DynamicTable) MaxLimit() int { return t.maxLimit }

// SetMaxLimit updates the ceiling (driven by a local SETTINGS change) and
// clamps the live limit down to it if needed.
func (t *DynamicTable) SetMaxLimit(n int) {
	t.maxLimit = n
	if t.limit > n {
		t.SetLimit(n)
	}
}

// SetLimit applies a dynamic-table-size-update command: it must never
// exceed maxLimit, and it evicts from the oldest end until the table's
// total size is at or below limit.
func (t *DynamicTable) SetLimit(n int) {
	if n > t.maxLimit {
		n = t.maxLimit
	}
	t.limit = n
	t.evictToFit()
}

// Insert adds name/value as the newest entry, evicting older entries as
// needed to respect limit. An entry whose own size exceeds limit results
// in an empty table, per RFC 7541 §4.4.
func (t *DynamicTable) Insert(name, value string) {
	hf := &HeaderField{}
	hf.SetName(name)
	hf.SetValue(value)

	t.entries = append(t.entries, hf)
	t.size += hf.Size()

	t.evictToFit()
}

func (t *DynamicTable) evictToFit() {
	i := 0
	for t.size > t.limit && i < len(t.entries) {
		t.size -= t.entries[i].Size()
		i++
	}
	if i > 0 {
		t.entries = append(t.entries[:0], t.entries[i:]...)
	}
}

// At returns the entry at HPACK dynamic-table index i (1-based, newest
// first, continuing the static table's index space: dynamic index 1 is
// static index 62). ok is false if i is out of range.
func (t *DynamicTable) At(i int) (name, value string, ok bool) {
	n := len(t.entries)
	if i < 1 || i > n {
		return "", "", false
	}
	e := t.entries[n-i]
	return e.Name(), e.Value(), true
}

// Find looks for an exact (name, value) match, then a name-only match,
// returning the 1-based dynamic index and whether a value match was found.
func (t *DynamicTable) Find(name, value string) (idx int, nameOnly bool, found bool) {
	for i := 1; i <= len(t.entries); i++ {
		n, v, _ := t.At(i)
		if n != name {
			continue
		}
		if v == value {
			return i, false, true
		}
		if !found {
			idx, nameOnly, found = i, true, true
		}
	}
	return idx, nameOnly, found
}

// StaticTableSize is the number of entries in the immutable static table.
const StaticTableSize = len(staticTable)

// lookupStatic returns the static table entry at 1-based index i.
func lookupStatic(i int) (name, value string, ok bool) {
	if i < 1 || i > StaticTableSize {
		return "", "", false
	}
	e := staticTable[i-1]
	return e.name, e.value, true
}

// findStatic mirrors DynamicTable.Find but over the static table.
func findStatic(name, value string) (idx int, nameOnly bool, found bool) {
	for i, e := range staticTable {
		if e.name != name {
			continue
		}
		if e.value == value {
			return i + 1, false, true
		}
		if !found {
			idx, nameOnly, found = i+1, true, true
		}
	}
	return idx, nameOnly, found
}
