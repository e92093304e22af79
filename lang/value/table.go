package value

// Table is the open-addressing hash table used for both the VM's global
// table (name -> Value) and its string intern set (string -> Nil, used as
// a set), per spec.md §4.4. It uses linear probing, a 0.75 max load
// factor, doubling growth starting at capacity 8, and tombstone deletion
// (a deleted entry keeps Key == nil but Value != nil so that probe
// sequences through it are preserved).
type Table struct {
	entries []entry
	count   int // live entries + tombstones, for load-factor purposes
}

type entry struct {
	key   *String
	value Value
}

const tableMaxLoad = 0.75

// Get returns the value associated with key, or ok == false if absent or
// deleted.
func (t *Table) Get(key *String) (Value, bool) {
	if len(t.entries) == 0 {
		return nil, false
	}
	e := t.find(key)
	if e.key == nil {
		return nil, false
	}
	return e.value, true
}

// Set inserts or overwrites key's value, growing the table first if
// needed. It reports whether this was a new key (true when it fills an
// empty slot or reuses a tombstone, false when it overwrites an existing
// live entry).
func (t *Table) Set(key *String, val Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow(growCapacity(len(t.entries)))
	}
	e := t.find(key)
	isNew := e.key == nil
	if isNew && e.value == nil {
		// a genuinely empty slot, not a reused tombstone, counts toward the
		// load factor
		t.count++
	}
	e.key = key
	e.value = val
	return isNew
}

// Delete removes key, leaving a tombstone behind so that later probes for
// other keys that hashed into the same bucket still find them. It reports
// whether key was present.
func (t *Table) Delete(key *String) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = Bool(true) // tombstone marker, per spec.md §4.4
	return true
}

// FindString looks up a string by its raw content, hash and length without
// requiring a *String object to already exist. This is the entry point the
// VM's interning logic uses to check "have I already interned this byte
// sequence?" before allocating a new String.
func (t *Table) FindString(chars string, hash uint32) *String {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		e := &t.entries[idx]
		switch {
		case e.key == nil:
			if e.value == nil {
				// genuinely empty slot: the string is not interned
				return nil
			}
			// tombstone: keep probing
		case e.key.Hash == hash && e.key.Chars == chars:
			return e.key
		}
		idx = (idx + 1) & mask
	}
}

// find locates the entry for key, returning either its live slot or the
// first available slot (empty or tombstone) on the probe sequence — the
// standard clox Table_findEntry algorithm.
func (t *Table) find(key *String) *entry {
	mask := uint32(len(t.entries) - 1)
	idx := key.Hash & mask
	var tombstone *entry
	for {
		e := &t.entries[idx]
		switch {
		case e.key == nil:
			if e.value == nil {
				// empty slot: return the first tombstone seen, if any, else this slot
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		idx = (idx + 1) & mask
	}
}

func growCapacity(cap int) int {
	if cap < 8 {
		return 8
	}
	return cap * 2
}

// grow resizes the table to newCap (a power of two) and rehashes every live
// entry into it, dropping tombstones.
func (t *Table) grow(newCap int) {
	grown := &Table{entries: make([]entry, newCap)}
	for i := range t.entries {
		e := &t.entries[i]
		if e.key == nil {
			continue // empty slot or tombstone: drop it
		}
		dst := grown.find(e.key)
		dst.key = e.key
		dst.value = e.value
		grown.count++
	}
	t.entries = grown.entries
	t.count = grown.count
}

// Len reports the number of live entries (excludes tombstones).
func (t *Table) Len() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].key != nil {
			n++
		}
	}
	return n
}
