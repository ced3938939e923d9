// Package filter implements rsync-style include/exclude path rules.
// The commit phase consults a chain before deleting target entries, so
// paths that were deliberately excluded from the copy are never treated
// as stale on the target.
package filter

// rule pairs a compiled pattern with its polarity. An exclude rule
// protects matching target paths from deletion; an earlier include rule
// releases a path later excludes would have protected.
type rule struct {
	pat     *pattern
	include bool
}

// Chain is an ordered list of rules. The first matching rule wins.
type Chain struct {
	rules []rule
}

// NewChain creates an empty chain. An empty chain protects nothing.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude appends an exclude rule for the given pattern.
func (c *Chain) AddExclude(spec string) error {
	return c.add(spec, false)
}

// AddInclude appends an include rule for the given pattern.
func (c *Chain) AddInclude(spec string) error {
	return c.add(spec, true)
}

func (c *Chain) add(spec string, include bool) error {
	p, err := compile(spec)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, rule{pat: p, include: include})
	return nil
}

// Empty reports whether the chain has no rules.
func (c *Chain) Empty() bool {
	return len(c.rules) == 0
}

// Len returns the number of rules in the chain.
func (c *Chain) Len() int {
	return len(c.rules)
}

// Eligible reports whether relPath may be deleted. Rules are checked in
// order: the first match decides, an exclude protects the path, an
// include releases it. A path no rule matches is eligible.
func (c *Chain) Eligible(relPath string, isDir bool) bool {
	for _, r := range c.rules {
		if r.pat.match(relPath, isDir) {
			return r.include
		}
	}
	return true
}
