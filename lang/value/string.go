package value

import "strconv"

// String is an immutable, interned Peach string. Two Strings with the same
// byte content are always the same *String object (spec.md §3/§4.4), so
// equality (and therefore use as a map/table key) may use pointer identity.
type String struct {
	Header
	Chars string
	Hash  uint32
}

var _ Object = (*String)(nil)

func (s *String) String() string   { return strconv.Quote(s.Chars) }
func (s *String) Type() string     { return "string" }
func (s *String) ObjHeader() *Header { return &s.Header }

// fnv1aOffset and fnv1aPrime are the 32-bit FNV-1a constants (spec.md §3:
// "Hash is FNV-1a over bytes").
const (
	fnv1aOffset uint32 = 2166136261
	fnv1aPrime  uint32 = 16777619
)

// HashString computes the FNV-1a hash of s.
func HashString(s string) uint32 {
	h := fnv1aOffset
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnv1aPrime
	}
	return h
}

// NewString allocates an un-interned String object for chars. The result
// is not canonical: the compiler uses it for string and name constants,
// and the VM passes such objects through its intern table (vm.intern)
// before they are compared or used as table keys.
func NewString(chars string) *String {
	return &String{Header: Header{Kind: ObjString}, Chars: chars, Hash: HashString(chars)}
}
