package answers

// Snapshot is a read-only view over a set of answers loaded together.
type Snapshot struct {
	values map[Key]string
}

// SnapshotOf builds a snapshot from literal values (tests, dry runs).
func SnapshotOf(values map[Key]string) Snapshot {
	cp := make(map[Key]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Snapshot{values: cp}
}

// Lookup returns the raw value and whether it was set.
func (s Snapshot) Lookup(key Key) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Value returns the raw value or "".
func (s Snapshot) Value(key Key) string {
	return s.values[key]
}

// Keys lists the keys present in the snapshot.
func (s Snapshot) Keys() []Key {
	out := make([]Key, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	return out
}

// Decode decodes a structured answer from the snapshot.
func Decode[T Shape](s Snapshot, c Codec[T]) (T, bool, error) {
	var zero T
	raw, ok := s.values[c.Key]
	if !ok {
		return zero, false, nil
	}
	v, err := c.Decode(raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}
