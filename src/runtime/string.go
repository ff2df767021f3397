package runtime

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ObjString is an immutable, UTF-8-treated byte string with a precomputed
// FNV-1a hash.
type ObjString struct {
	header_ ObjHeader
	value   string
	hash    uint64
}

func (s *ObjString) header() *ObjHeader { return &s.header_ }
func (s *ObjString) Type() ObjType      { return ObjStringType }
func (s *ObjString) size() int          { return 24 + len(s.value) }

// NewString allocates a string object, hashing it once up front so the hash
// never needs recomputing for the object's lifetime.
func (vm *VM) NewString(value string) *ObjString {
	s := &ObjString{value: value, hash: fnv1a([]byte(value))}
	vm.registerObj(s, vm.stringClass)
	return s
}

// String returns the Go string content.
func (s *ObjString) String() string { return s.value }

// Hash returns the precomputed FNV-1a hash.
func (s *ObjString) Hash() uint64 { return s.hash }

// ByteLen reports the string's length in bytes.
func (s *ObjString) ByteLen() int { return len(s.value) }

// nextUTF8Boundary returns the byte length of the code point (or, for an
// invalid sequence, the single raw byte) starting at index i: String
// iteration advances to the next UTF-8 lead byte, and invalid sequences
// pass through as single bytes. It leans on
// golang.org/x/text/unicode/norm's boundary detector rather than a
// hand-rolled lead-byte scan; for the non-combining-mark text that
// dominates real scripts this coincides exactly with a single rune's byte
// span, falling back to utf8.DecodeRuneInString when norm reports no
// boundary (an incomplete or invalid sequence).
func nextUTF8Boundary(s string, i int) int {
	if i >= len(s) {
		return 0
	}
	if n := norm.NFC.FirstBoundaryInString(s[i:]); n > 0 {
		if _, size := utf8.DecodeRuneInString(s[i:]); size > 0 && size <= n {
			return size
		}
		return n
	}
	if r, size := utf8.DecodeRuneInString(s[i:]); r != utf8.RuneError || size == 1 {
		if size > 0 {
			return size
		}
	}
	return 1
}

// codePointAt decodes the rune starting at byte index i, returning
// utf8.RuneError for an invalid lead byte (the caller then treats the raw
// byte itself as the code point).
func codePointAt(s string, i int) rune {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return r
}

// iterNext implements String's half of iteration protocol: it
// is a byte index, advanced to the next UTF-8 lead byte.
func (s *ObjString) iterNext(it Value) Value {
	idx := 0
	if !it.IsNull() {
		idx = int(it.AsNum()) + nextUTF8Boundary(s.value, int(it.AsNum()))
	}
	if idx >= len(s.value) {
		return FalseVal
	}
	return NumVal(float64(idx))
}

// iterValue returns the code point at byte index it as a single-code-point
// substring, matching Wren's string iteration (values are one-character
// strings, not raw integers).
func (vm *VM) iterValueString(s *ObjString, it Value) Value {
	idx := int(it.AsNum())
	n := nextUTF8Boundary(s.value, idx)
	end := idx + n
	if end > len(s.value) {
		end = len(s.value)
	}
	return ObjVal(vm.NewString(s.value[idx:end]))
}
