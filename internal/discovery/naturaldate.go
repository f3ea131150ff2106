package discovery

import (
	"fmt"
	"sync"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	parserOnce sync.Once
	parser     *when.Parser
)

func whenParser() *when.Parser {
	parserOnce.Do(func() {
		parser = when.New(nil)
		parser.Add(en.All...)
		parser.Add(common.All...)
	})
	return parser
}

// parseWhen resolves a free-form date value against reference "now"; it
// backs ParseNaturalDate, whose caller is bdp clean --age (spec.md §4.6,
// SPEC_FULL.md client CLI).
func parseWhen(raw string, reference time.Time) (time.Time, error) {
	r, err := whenParser().Parse(raw, reference)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", raw, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not interpret %q as a date", raw)
	}
	return r.Time, nil
}
