package forks

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultSignature matches the node runtime of a VS Code server launching
	// an extension host or other worker through bootstrap-fork.
	DefaultSignature = `\.vscode-server/bin/.*/node .*bootstrap-fork`
	// DefaultNoise marks the server's own bookkeeping subprocesses.
	DefaultNoise = ".vscode-server"
)

// DefaultIgnore lists simplified commands that never contribute to a summary.
var DefaultIgnore = []string{"bash"}

// Signature describes how fork roots are recognised and which descendant
// commands are noise.
type Signature struct {
	Pattern *regexp.Regexp
	Noise   string
	Ignore  []string
}

// DefaultForkSignature returns the signature for VS Code remote servers.
func DefaultForkSignature() Signature {
	return Signature{
		Pattern: regexp.MustCompile(DefaultSignature),
		Noise:   DefaultNoise,
		Ignore:  append([]string(nil), DefaultIgnore...),
	}
}

// NewSignature compiles a signature from its textual parts.
func NewSignature(pattern, noise string, ignore []string) (Signature, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Signature{}, fmt.Errorf("compile fork signature: %w", err)
	}
	return Signature{Pattern: re, Noise: noise, Ignore: append([]string(nil), ignore...)}, nil
}

// Matches reports whether command is a fork root.
func (s Signature) Matches(command string) bool {
	return s.Pattern != nil && s.Pattern.MatchString(command)
}

func (s Signature) isNoise(command string) bool {
	return s.Noise != "" && strings.Contains(command, s.Noise)
}

func (s Signature) ignored(simplified string) bool {
	for _, ignore := range s.Ignore {
		if simplified == ignore {
			return true
		}
	}
	return false
}

// Classify returns every process of the full list whose command matches the
// signature, in input order.
func Classify(procs []*Process, sig Signature) []*Process {
	var matches []*Process
	for _, p := range procs {
		if p != nil && sig.Matches(p.Command) {
			matches = append(matches, p)
		}
	}
	return matches
}

// WalkOptions carries the inputs of a subtree walk.
type WalkOptions struct {
	Signature  Signature
	Simplifier *Simplifier
	SelfPID    int
}

// Walk traverses the subtree below root depth-first, parents before children,
// and aggregates descendant commands into a Fork. The tree is not modified.
// Ids already visited are not entered again, so malformed parent cycles end
// the walk instead of looping.
func Walk(root *Process, opts WalkOptions) Fork {
	fork := Fork{
		ID:       root.ID,
		ParentID: root.ParentID,
		User:     root.User,
		Command:  root.Command,
		Commands: []string{},
	}

	visited := make(map[int]struct{})
	var visit func(p *Process)
	visit = func(p *Process) {
		if _, ok := visited[p.ID]; ok {
			return
		}
		visited[p.ID] = struct{}{}
		fork.Members = append(fork.Members, p.ID)
		if p.ID == opts.SelfPID {
			fork.Self = true
		}

		for _, child := range p.Children {
			if opts.Signature.isNoise(child.Command) {
				continue
			}
			simplified := opts.Simplifier.Simplify(child.Command)
			if opts.Signature.ignored(simplified) {
				continue
			}
			fork.Commands = append(fork.Commands, simplified)
		}
		for _, child := range p.Children {
			visit(child)
		}
	}
	visit(root)

	fork.CommandSummary = joinCommands(fork.Commands)
	fork.Summary = fmt.Sprintf("%d: (%s) %s", fork.ID, fork.User, fork.CommandSummary)
	return fork
}

// Discover builds the tree for a snapshot and walks every fork root in it.
func Discover(procs []*Process, opts WalkOptions) []Fork {
	BuildTree(procs)
	roots := Classify(procs, opts.Signature)
	forks := make([]Fork, 0, len(roots))
	for _, root := range roots {
		forks = append(forks, Walk(root, opts))
	}
	return forks
}
