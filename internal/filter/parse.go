package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads a rules file and returns the resulting chain. One rule per
// line: "+ pattern" includes, "- pattern" excludes, an unprefixed
// pattern excludes, "#" comments and blank lines are skipped.
func Load(path string) (*Chain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open filter rules: %w", err)
	}
	defer f.Close()

	c := NewChain()
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var addErr error
		switch {
		case strings.HasPrefix(text, "+ "):
			addErr = c.AddInclude(strings.TrimSpace(text[2:]))
		case strings.HasPrefix(text, "- "):
			addErr = c.AddExclude(strings.TrimSpace(text[2:]))
		default:
			addErr = c.AddExclude(text)
		}
		if addErr != nil {
			return nil, fmt.Errorf("filter rules %s line %d: %w", path, line, addErr)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read filter rules %s: %w", path, err)
	}
	return c, nil
}
