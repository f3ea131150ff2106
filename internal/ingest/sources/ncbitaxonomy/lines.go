package ncbitaxonomy

import (
	"bufio"
	"io"
)

// linesOf is a range-over-func iterator yielding successive lines of r.
// Scan errors are swallowed at the end of iteration (callers only see a
// possibly-short sequence) since the outer Parse already treats individual
// malformed lines as skip-not-abort.
func linesOf(r io.Reader) func(func(string) bool) {
	return func(yield func(string) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}
}
