// Package manifest builds the resources manifest: the list of output asset
// names a service worker pre-caches, optionally split into labelled groups.
package manifest

import (
	"fmt"
	"sort"

	"github.com/fulmenhq/cachestamp/pkg/host"
	"github.com/fulmenhq/cachestamp/pkg/pattern"
)

// DefaultName is the file name of the emitted manifest.
const DefaultName = "resources-manifest.json"

// Rule selects assets. It is either a single pattern or a set of labelled
// patterns; construct it with Single or Grouped.
type Rule struct {
	single  pattern.Matcher
	groups  map[string]pattern.Matcher
	labels  []string
	grouped bool
}

// Single is the one-pattern rule; its manifest is a flat list.
func Single(m pattern.Matcher) Rule {
	return Rule{single: m}
}

// Grouped is the labelled rule; its manifest maps each label to a list.
func Grouped(groups map[string]pattern.Matcher) Rule {
	r := Rule{groups: make(map[string]pattern.Matcher, len(groups)), grouped: true}
	for label, m := range groups {
		r.groups[label] = m
		r.labels = append(r.labels, label)
	}
	sort.Strings(r.labels)
	return r
}

// DefaultRule selects .js and .css assets.
func DefaultRule() Rule {
	return Single(pattern.MustCompile(pattern.DefaultSpec))
}

// IsGrouped reports which variant the rule is.
func (r Rule) IsGrouped() bool { return r.grouped }

// Labels returns group labels in sorted order; nil for a single rule.
func (r Rule) Labels() []string { return append([]string(nil), r.labels...) }

// Matcher returns the pattern of a single rule, or of the named group.
func (r Rule) Matcher(label string) (pattern.Matcher, bool) {
	if !r.grouped {
		return r.single, r.single != nil && label == ""
	}
	m, ok := r.groups[label]
	return m, ok
}

// Validate reports an unusable rule, such as the zero value.
func (r Rule) Validate() error {
	if !r.grouped {
		if r.single == nil {
			return fmt.Errorf("selection rule has no pattern")
		}
		return nil
	}
	if len(r.groups) == 0 {
		return fmt.Errorf("grouped selection rule has no groups")
	}
	for _, label := range r.labels {
		if label == "" {
			return fmt.Errorf("grouped selection rule has an empty label")
		}
		if r.groups[label] == nil {
			return fmt.Errorf("group %q has no pattern", label)
		}
	}
	return nil
}

// Ceiling is an exclusive upper bound on asset size in bytes.
type Ceiling struct {
	limit   int64
	bounded bool
}

// Unbounded admits assets of any size.
func Unbounded() Ceiling { return Ceiling{} }

// Below admits assets strictly smaller than n bytes.
func Below(n int64) Ceiling { return Ceiling{limit: n, bounded: true} }

// Admits reports whether size is below the ceiling.
func (c Ceiling) Admits(size int64) bool {
	return !c.bounded || size < c.limit
}

// Limit returns the bound and whether one is set.
func (c Ceiling) Limit() (int64, bool) { return c.limit, c.bounded }

func (c Ceiling) String() string {
	if !c.bounded {
		return "unbounded"
	}
	return fmt.Sprintf("<%d bytes", c.limit)
}

// Manifest is the builder output. Names is set for a single rule and Groups
// for a grouped one; every group of the rule is present, possibly empty.
type Manifest struct {
	Grouped bool
	Names   []string
	Groups  map[string][]string
}

// Group returns the names selected for label.
func (m Manifest) Group(label string) []string {
	if !m.Grouped {
		if label == "" {
			return m.Names
		}
		return nil
	}
	return m.Groups[label]
}

// Labels returns group labels in sorted order.
func (m Manifest) Labels() []string {
	labels := make([]string, 0, len(m.Groups))
	for label := range m.Groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Count is the number of names across all groups. An asset in two groups
// counts twice.
func (m Manifest) Count() int {
	if !m.Grouped {
		return len(m.Names)
	}
	n := 0
	for _, names := range m.Groups {
		n += len(names)
	}
	return n
}

// Build selects, for every group of rule, the names of assets that match the
// group pattern and are below ceiling. Input order is kept and a name is
// listed once per group even if the host reports it twice.
func Build(assets []host.Asset, rule Rule, ceiling Ceiling) Manifest {
	if !rule.grouped {
		return Manifest{Names: selectNames(assets, rule.single, ceiling)}
	}
	out := Manifest{Grouped: true, Groups: make(map[string][]string, len(rule.groups))}
	for _, label := range rule.labels {
		out.Groups[label] = selectNames(assets, rule.groups[label], ceiling)
	}
	return out
}

func selectNames(assets []host.Asset, m pattern.Matcher, ceiling Ceiling) []string {
	names := make([]string, 0)
	if m == nil {
		return names
	}
	seen := make(map[string]struct{})
	for _, a := range assets {
		if !ceiling.Admits(a.Size) || !m.Match(a.Name) {
			continue
		}
		if _, dup := seen[a.Name]; dup {
			continue
		}
		seen[a.Name] = struct{}{}
		names = append(names, a.Name)
	}
	return names
}
