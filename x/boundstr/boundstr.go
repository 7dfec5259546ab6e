// Package boundstr provides fixed-capacity strings for wire-facing
// records. A Buf never allocates after construction and truncates on
// write, so a hostile or oversized field can never grow memory.
package boundstr

// MaxCap is the largest capacity a Buf supports.
const MaxCap = 64

// Buf is a fixed-capacity byte-backed string. A Buf of capacity n
// stores at most n-1 bytes; longer writes are truncated. The zero Buf
// has capacity 0 and stores nothing; use New.
type Buf struct {
	data [MaxCap]byte
	n    uint8
	cap  uint8
}

// New returns an empty Buf with the given capacity, clamped to
// [0, MaxCap].
func New(capacity int) Buf {
	if capacity < 0 {
		capacity = 0
	}
	if capacity > MaxCap {
		capacity = MaxCap
	}
	return Buf{cap: uint8(capacity)}
}

// Set replaces the contents with p, truncated to capacity-1 bytes.
func (b *Buf) Set(p []byte) {
	max := b.max()
	if len(p) > max {
		p = p[:max]
	}
	copy(b.data[:], p)
	b.n = uint8(len(p))
}

// SetString replaces the contents with s, truncated to capacity-1 bytes.
func (b *Buf) SetString(s string) {
	max := b.max()
	if len(s) > max {
		s = s[:max]
	}
	copy(b.data[:], s)
	b.n = uint8(len(s))
}

func (b *Buf) Reset() { b.n = 0 }

// Bytes returns a view of the stored bytes. The view is invalidated by
// the next Set.
func (b *Buf) Bytes() []byte { return b.data[:b.n] }

// String returns a copy of the stored bytes. It allocates.
func (b *Buf) String() string { return string(b.data[:b.n]) }

func (b *Buf) Len() int      { return int(b.n) }
func (b *Buf) Cap() int      { return int(b.cap) }
func (b *Buf) IsEmpty() bool { return b.n == 0 }

// Equal reports whether two Bufs hold the same bytes, regardless of
// capacity.
func (b *Buf) Equal(other *Buf) bool {
	if b.n != other.n {
		return false
	}
	for i := uint8(0); i < b.n; i++ {
		if b.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// EqualString reports whether the stored bytes match s.
func (b *Buf) EqualString(s string) bool {
	if int(b.n) != len(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if b.data[i] != s[i] {
			return false
		}
	}
	return true
}

// max returns the usable byte count: capacity minus the reserved slot.
func (b *Buf) max() int {
	if b.cap == 0 {
		return 0
	}
	return int(b.cap) - 1
}
