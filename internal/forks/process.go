// Package forks reconstructs the process tree of a host and classifies the
// subtrees started by a remote VS Code server's bootstrap-fork launcher.
package forks

import "strings"

// Process is a single entry of a process-table snapshot.
type Process struct {
	ID       int
	ParentID int
	User     string
	Command  string

	// Children is populated by BuildTree.
	Children []*Process
}

// Fork is a process subtree rooted at a bootstrap-fork launcher together with
// the commands of its descendants.
type Fork struct {
	ID       int
	ParentID int
	User     string
	Command  string

	// Commands holds the simplified descendant commands in depth-first order.
	Commands []string
	// Members lists every process id visited by the walk, root first.
	Members []int
	// Self reports whether the running program lives inside this subtree.
	Self bool

	Summary        string
	CommandSummary string
}

// String returns the one-line summary shown in listings and menus.
func (f Fork) String() string {
	return f.Summary
}

// Empty reports whether the fork has no descendant activity.
func (f Fork) Empty() bool {
	return len(f.Commands) == 0
}

func joinCommands(commands []string) string {
	return strings.Join(commands, "; ")
}
