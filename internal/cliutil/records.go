package cliutil

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Paintersrp/kill-code/internal/forks"
)

// ForkRecord represents a fork ready for JSON encoding.
type ForkRecord struct {
	ID       int      `json:"id"`
	ParentID int      `json:"ppid"`
	User     string   `json:"user"`
	Self     bool     `json:"self"`
	Commands []string `json:"commands"`
	Members  []int    `json:"members"`
	Summary  string   `json:"summary"`
}

// NewForkRecord converts a fork into a record, masking secrets in its
// commands when redact is set.
func NewForkRecord(f forks.Fork, redact bool) ForkRecord {
	commands := append([]string{}, f.Commands...)
	summary := f.Summary
	if redact {
		for i, cmd := range commands {
			commands[i] = RedactSecrets(cmd)
		}
		summary = RedactSecrets(summary)
	}
	members := append([]int{}, f.Members...)
	return ForkRecord{
		ID:       f.ID,
		ParentID: f.ParentID,
		User:     f.User,
		Self:     f.Self,
		Commands: commands,
		Members:  members,
		Summary:  summary,
	}
}

// EncodeFork encodes a fork to JSON, reporting errors to stderr if needed.
func EncodeFork(enc *json.Encoder, stderr io.Writer, f forks.Fork, redact bool) {
	if enc == nil {
		return
	}
	record := NewForkRecord(f, redact)
	if err := enc.Encode(&record); err != nil {
		fmt.Fprintf(stderr, "error: encode fork: %v\n", err)
	}
}

// DisplaySummary returns the summary line shown to users.
func DisplaySummary(f forks.Fork, redact bool) string {
	if redact {
		return RedactSecrets(f.Summary)
	}
	return f.Summary
}

// DisplayCommands returns the command list shown to users.
func DisplayCommands(f forks.Fork, redact bool) []string {
	if !redact {
		return f.Commands
	}
	out := make([]string, len(f.Commands))
	for i, cmd := range f.Commands {
		out[i] = RedactSecrets(cmd)
	}
	return out
}
