package bus

import "strconv"

// Wildcard tokens recognized in subscription topics. WildcardOne matches
// exactly one token, WildcardAll matches the remainder of a topic,
// including an empty remainder.
const (
	WildcardOne = "+"
	WildcardAll = "#"
)

// Topic is a sequence of comparable tokens, usually strings. Integer
// tokens are allowed for things like sequence numbers in reply topics.
type Topic []any

// T builds a Topic. It panics if a token is not a string, integer, or
// bool, since tokens are used as trie keys and must be comparable.
func T(tokens ...any) Topic {
	t := make(Topic, len(tokens))
	for i, tok := range tokens {
		switch tok.(type) {
		case string, int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64, bool:
		default:
			panic("bus: topic token must be a string, integer, or bool")
		}
		t[i] = tok
	}
	return t
}

func (t Topic) Len() int { return len(t) }

// At returns the token at index i, or nil when out of range.
func (t Topic) At(i int) any {
	if i < 0 || i >= len(t) {
		return nil
	}
	return t[i]
}

// Append returns a new Topic with the extra tokens added. The receiver
// is not modified.
func (t Topic) Append(tokens ...any) Topic {
	out := make(Topic, 0, len(t)+len(tokens))
	out = append(out, t...)
	out = append(out, tokens...)
	return out
}

func (t Topic) Equal(other Topic) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the topic with '/' separators, for logs.
func (t Topic) String() string {
	var out []byte
	for i, tok := range t {
		if i > 0 {
			out = append(out, '/')
		}
		switch v := tok.(type) {
		case string:
			out = append(out, v...)
		case int:
			out = append(out, strconv.Itoa(v)...)
		case bool:
			if v {
				out = append(out, "true"...)
			} else {
				out = append(out, "false"...)
			}
		default:
			out = append(out, '?')
		}
	}
	return string(out)
}
