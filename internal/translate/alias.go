package translate

import "strconv"

// aliasPrefix is the fixed prefix of every subquery alias. Numbering is
// zero-based and strictly increasing within one build: SUBQUERY_0,
// SUBQUERY_1, and so on, no gaps, never reset mid-run.
const aliasPrefix = "SUBQUERY_"

// aliasGen issues fresh subquery aliases for one build. Not safe for
// concurrent use; a build runs on a single goroutine.
type aliasGen struct {
	next int
}

// Next returns a previously-unused alias and advances the counter.
func (g *aliasGen) Next() string {
	alias := aliasPrefix + strconv.Itoa(g.next)
	g.next++
	return alias
}
