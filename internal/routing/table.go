// Package routing compiles an ordered rule list into a route table that
// resolves a request path to a rule index and its extracted parameters.
package routing

import (
	"fmt"
	"strings"

	"github.com/mockfwd/mockfwd/pkg/rule"
)

// paramMarker introduces a parameter segment in a path pattern.
const paramMarker = ':'

// entry is one parameterized pattern in insertion order.
type entry struct {
	pattern  string
	segments []string
	index    int
}

// Table is a read-only structure built from an ordered rule list. It is
// never mutated after Build returns; hot reload replaces the whole table.
//
// The table stores one rule index per distinct pattern text. Because
// Build iterates rules in order, a later rule with the same pattern
// overwrites an earlier one ("last inserted wins"). Method filtering is
// not the table's job; it happens after a path match.
type Table struct {
	// literals maps parameter-free patterns to their rule index.
	literals map[string]int
	// params holds parameterized patterns in first-insertion order.
	params []entry
	// paramPos locates a parameterized pattern for index overwrite.
	paramPos map[string]int
}

// Build compiles rules into a Table. It is pure and deterministic: the
// same rule list always yields a table with identical lookup behavior.
// Patterns are assumed to have passed ValidatePattern.
func Build(rules []rule.Rule) *Table {
	t := &Table{
		literals: make(map[string]int),
		paramPos: make(map[string]int),
	}
	for i, r := range rules {
		segs := splitPath(r.Path)
		if !hasParams(segs) {
			t.literals[r.Path] = i
			continue
		}
		if pos, ok := t.paramPos[r.Path]; ok {
			t.params[pos].index = i
			continue
		}
		t.paramPos[r.Path] = len(t.params)
		t.params = append(t.params, entry{pattern: r.Path, segments: segs, index: i})
	}
	return t
}

// Lookup resolves a request path to a rule index and bound parameters.
// Literal patterns take precedence over parameterized ones; among
// parameterized patterns the first match in insertion order wins.
// A miss is a normal outcome, reported via ok=false.
func (t *Table) Lookup(path string) (index int, params map[string]string, ok bool) {
	if idx, found := t.literals[path]; found {
		return idx, nil, true
	}
	segs := splitPath(path)
	for _, e := range t.params {
		if bound, matched := matchSegments(e.segments, segs); matched {
			return e.index, bound, true
		}
	}
	return 0, nil, false
}

// Len returns the number of distinct patterns held by the table.
func (t *Table) Len() int {
	return len(t.literals) + len(t.params)
}

// ValidatePattern rejects path patterns the table cannot hold. It is
// called by the admin updater before a swap so malformed patterns fail
// the update instead of surfacing at dispatch time.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("empty path pattern")
	}
	if !strings.HasPrefix(pattern, "/") {
		return fmt.Errorf("path pattern %q must start with /", pattern)
	}
	segs := splitPath(pattern)
	for i, seg := range segs {
		if seg == "" && i != len(segs)-1 {
			return fmt.Errorf("path pattern %q has an empty segment", pattern)
		}
		if len(seg) > 0 && seg[0] == paramMarker && len(seg) == 1 {
			return fmt.Errorf("path pattern %q has a parameter with no name", pattern)
		}
	}
	return nil
}

// splitPath splits a rooted path into segments, dropping the leading
// empty element so "/a/b" yields ["a","b"]. A trailing slash produces a
// trailing empty segment, keeping "/a/" distinct from "/a".
func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	return strings.Split(p, "/")
}

func hasParams(segs []string) bool {
	for _, s := range segs {
		if len(s) > 0 && s[0] == paramMarker {
			return true
		}
	}
	return false
}

// matchSegments compares a pattern's segments against a path's segments.
// A ":name" segment matches any single non-empty path segment and binds
// it; literal segments must match exactly, case-sensitively.
func matchSegments(pattern, path []string) (map[string]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}
	var params map[string]string
	for i, ps := range pattern {
		if len(ps) > 0 && ps[0] == paramMarker {
			if path[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[ps[1:]] = path[i]
			continue
		}
		if ps != path[i] {
			return nil, false
		}
	}
	return params, true
}
