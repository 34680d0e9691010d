// Package patterns holds the compiled expressions that decide which stored
// strings reference a driver-store package and which are leftovers.
//
// A Set is built once per run from the current driver-store folder names and
// handed to the rewriter explicitly; nothing here is global mutable state.
package patterns

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/joshuapare/driverkit/pkg/types"
)

// HashLength is the number of hex characters in a driver-store folder suffix.
const HashLength = 16

// identitySeparator joins the segments of a driver-store folder name.
const identitySeparator = "_"

// Orphan heuristics. Both expressions are unanchored: a string is tested
// for containing a fragment anywhere.
const (
	orphanExpr = `(?i)oem[0-9]+\.inf` +
		`|(QCOM|MSHW|VEN_QCOM&DEV_|VEN_MSHW&DEV_)[0-9A-F]{4}` +
		`|surface.*duo.*inf` +
		`|\\qc` +
		`|\\surface`

	exclusionExpr = `(?i)QCOM(2465|2466|2484|2488|24A5|24B6|24B7|24BF|7002|FFE1|FFE2|FFE3|FFE4|FFE5)` +
		`|qcap` +
		`|qcursext`
)

var (
	orphanRe    = regexp.MustCompile(orphanExpr)
	exclusionRe = regexp.MustCompile(exclusionExpr)
)

// StablePrefix returns the part of a driver-store folder name that survives
// reinstallation: every "_" segment but the last, re-joined, plus a trailing
// "_". ok is false when the name has no "_" at all.
//
//	StablePrefix("foo_bar_1a2b3c4d5e6f7890") == "foo_bar_"
func StablePrefix(identity string) (prefix string, ok bool) {
	i := strings.LastIndex(identity, identitySeparator)
	if i < 0 {
		return "", false
	}
	return identity[:i+1], true
}

// IdentityPattern matches any hash variant of one installed package.
type IdentityPattern struct {
	// Identity is the current, canonical folder name.
	Identity string
	// Prefix is Identity's stable prefix.
	Prefix string

	re *regexp.Regexp
}

// NewIdentityPattern compiles the pattern for one installed package. The
// pattern is the quoted stable prefix followed by exactly HashLength hex
// characters, case-insensitive. A match must not be preceded by a folder
// name character, so usb.inf_amd64_ never matches inside
// winusb.inf_amd64_<hash>, and must not be followed by another hex digit.
func NewIdentityPattern(identity string) (IdentityPattern, error) {
	prefix, ok := StablePrefix(identity)
	if !ok {
		return IdentityPattern{}, types.Errorf(types.ErrKindInvalid, "package identity %q has no stable prefix", identity)
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(prefix) + `[0-9a-f]{16}`)
	if err != nil {
		return IdentityPattern{}, types.Wrap(types.ErrKindInvalid, err, "compile pattern for %q", identity)
	}
	return IdentityPattern{Identity: identity, Prefix: prefix, re: re}, nil
}

// Find returns the first reference to this package in s, whatever its hash.
func (p IdentityPattern) Find(s string) (string, bool) {
	ms := p.FindAllIndex(s)
	if len(ms) == 0 {
		return "", false
	}
	return s[ms[0][0]:ms[0][1]], true
}

// FindStale returns the first reference in s that is not the current
// identity.
func (p IdentityPattern) FindStale(s string) (string, bool) {
	for _, m := range p.FindAllIndex(s) {
		if ref := s[m[0]:m[1]]; ref != p.Identity {
			return ref, true
		}
	}
	return "", false
}

// FindAllIndex returns the [start, end) offsets of every reference to this
// package in s.
func (p IdentityPattern) FindAllIndex(s string) [][]int {
	var out [][]int
	for _, m := range p.re.FindAllStringIndex(s, -1) {
		if m[0] > 0 && isNameByte(s[m[0]-1]) {
			continue
		}
		if m[1] < len(s) && isHexByte(s[m[1]]) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Replace substitutes to for every reference in s whose text is exactly
// from. Text that only looks like from, such as the head of a longer hex
// run, is left alone.
func (p IdentityPattern) Replace(s, from, to string) string {
	var b strings.Builder
	last := 0
	for _, m := range p.FindAllIndex(s) {
		if s[m[0]:m[1]] != from {
			continue
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(to)
		last = m[1]
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

// isNameByte reports whether c can appear in a driver-store folder name.
// Non-ASCII bytes count as name bytes.
func isNameByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '.', c == '_', c == '-', c >= 0x80:
		return true
	}
	return false
}

func isHexByte(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// Set is the per-run pattern set.
type Set struct {
	Identities []IdentityPattern

	orphan    *regexp.Regexp
	exclusion *regexp.Regexp
}

// New builds a Set from the currently installed package identities.
// Identities without a stable prefix are skipped and logged.
func New(log *slog.Logger, identities ...string) *Set {
	s := &Set{
		Identities: make([]IdentityPattern, 0, len(identities)),
		orphan:     orphanRe,
		exclusion:  exclusionRe,
	}
	for _, id := range identities {
		p, err := NewIdentityPattern(id)
		if err != nil {
			if log != nil {
				log.Warn("skipping package identity", "identity", id, "error", err)
			}
			continue
		}
		s.Identities = append(s.Identities, p)
	}
	return s
}

// WithOrphanRules returns a copy of s using custom orphan and exclusion
// expressions.
func (s *Set) WithOrphanRules(orphan, exclusion *regexp.Regexp) *Set {
	c := *s
	c.orphan = orphan
	c.exclusion = exclusion
	return &c
}

// IsOrphan reports whether str matches the orphan heuristic and is not
// allow-listed. Exclusion always wins.
func (s *Set) IsOrphan(str string) bool {
	_, ok := s.OrphanMatch(str)
	return ok
}

// OrphanMatch is IsOrphan returning the matched fragment for logging.
func (s *Set) OrphanMatch(str string) (string, bool) {
	if s.orphan == nil {
		return "", false
	}
	loc := s.orphan.FindStringIndex(str)
	if loc == nil {
		return "", false
	}
	if s.exclusion != nil && s.exclusion.MatchString(str) {
		return "", false
	}
	return str[loc[0]:loc[1]], true
}
