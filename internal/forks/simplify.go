package forks

import (
	"regexp"
	"strings"
)

// Simplifier strips search-path directory prefixes from command lines so that
// "/usr/bin/node /usr/bin/foo" reads as "node foo".
type Simplifier struct {
	patterns []*regexp.Regexp
}

// NewSimplifier compiles one pattern per directory, in path order. Empty
// entries are skipped.
func NewSimplifier(dirs []string) *Simplifier {
	s := &Simplifier{}
	for _, dir := range dirs {
		dir = strings.TrimRight(dir, "/")
		if dir == "" {
			continue
		}
		s.patterns = append(s.patterns, regexp.MustCompile(`(^| )`+regexp.QuoteMeta(dir)+`/`))
	}
	return s
}

// Simplify removes directory prefixes that start the command or follow a
// space. Directories that are prefixes of one another are resolved in path
// order. Passes repeat until the command stops changing.
func (s *Simplifier) Simplify(command string) string {
	if s == nil {
		return command
	}
	for {
		next := command
		for _, re := range s.patterns {
			next = re.ReplaceAllString(next, "$1")
		}
		if next == command {
			return command
		}
		command = next
	}
}

// Summarize drops repeated space-separated tokens, keeping the first
// occurrence of each.
func Summarize(command string) string {
	tokens := strings.Split(command, " ")
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return strings.Join(out, " ")
}
