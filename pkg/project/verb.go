package project

import (
	"fmt"
	"strings"
)

// Verb constrains when an interaction is eligible. The zero Verb is not a
// verb: it never matches an interaction and encodes as an empty string.
type Verb uint8

const (
	verbInvalid Verb = iota
	VerbLook
	VerbTake
	VerbUse
	VerbTalk
	VerbGive
	VerbGo
	verbCount
)

var verbNames = [verbCount]string{
	VerbLook: "look",
	VerbTake: "take",
	VerbUse:  "use",
	VerbTalk: "talk",
	VerbGive: "give",
	VerbGo:   "go",
}

// DefaultVerb is assigned to interactions whose verb is missing or unknown.
const DefaultVerb = VerbUse

// Verbs lists the closed verb vocabulary.
func Verbs() []Verb {
	out := make([]Verb, 0, verbCount-1)
	for v := verbInvalid + 1; v < verbCount; v++ {
		out = append(out, v)
	}
	return out
}

// Valid reports whether v is one of Verbs.
func (v Verb) Valid() bool {
	return v > verbInvalid && v < verbCount
}

func (v Verb) String() string {
	if !v.Valid() {
		return ""
	}
	return verbNames[v]
}

// ParseVerb resolves s to a known verb, ignoring case and surrounding space.
func ParseVerb(s string) (Verb, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for v := verbInvalid + 1; v < verbCount; v++ {
		if verbNames[v] == s {
			return v, true
		}
	}
	return verbInvalid, false
}

func (v Verb) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Verb) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*v = verbInvalid
		return nil
	}
	parsed, ok := ParseVerb(string(text))
	if !ok {
		return fmt.Errorf("unknown verb %q", text)
	}
	*v = parsed
	return nil
}
