package compare

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Rule names a cross-file group and how its sources are selected.
// Exactly one of Contains, Pattern or Sources must be set.
type Rule struct {
	Label    string
	Contains string
	Pattern  string
	Sources  []string
}

// Group is a compiled Rule.
type Group struct {
	Label string
	match func(source string) bool
}

// Match reports whether source belongs to the group.
func (g Group) Match(source string) bool {
	if g.match == nil {
		return false
	}
	return g.match(source)
}

// Compile validates the rule and builds its matcher.
func (r Rule) Compile() (Group, error) {
	if strings.TrimSpace(r.Label) == "" {
		return Group{}, errors.New("group label is required")
	}
	set := 0
	var g Group
	g.Label = r.Label
	if r.Contains != "" {
		set++
		sub := r.Contains
		g.match = func(s string) bool { return strings.Contains(s, sub) }
	}
	if r.Pattern != "" {
		set++
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return Group{}, fmt.Errorf("group %q: invalid pattern: %w", r.Label, err)
		}
		g.match = re.MatchString
	}
	if len(r.Sources) > 0 {
		set++
		members := make(map[string]struct{}, len(r.Sources))
		for _, s := range r.Sources {
			members[s] = struct{}{}
		}
		g.match = func(s string) bool {
			_, ok := members[s]
			return ok
		}
	}
	if set != 1 {
		return Group{}, fmt.Errorf("group %q: set exactly one of contains, pattern or sources", r.Label)
	}
	return g, nil
}
