// Package proctable takes point-in-time snapshots of the host process table.
package proctable

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/Paintersrp/kill-code/internal/forks"
)

const unknownUser = "?"

// Snapshot lists every process visible to the caller. Processes that exit
// while the table is being read are skipped.
func Snapshot(ctx context.Context) ([]*forks.Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	out := make([]*forks.Process, 0, len(procs))
	for _, p := range procs {
		entry, ok := describe(ctx, p)
		if !ok {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func describe(ctx context.Context, p *process.Process) (*forks.Process, bool) {
	ppid, err := p.PpidWithContext(ctx)
	if err != nil {
		return nil, false
	}
	return &forks.Process{
		ID:       int(p.Pid),
		ParentID: int(ppid),
		User:     username(ctx, p),
		Command:  commandLine(ctx, p),
	}, true
}

func username(ctx context.Context, p *process.Process) string {
	if name, err := p.UsernameWithContext(ctx); err == nil && name != "" {
		return name
	}
	if uids, err := p.UidsWithContext(ctx); err == nil && len(uids) > 0 {
		return strconv.Itoa(int(uids[0]))
	}
	return unknownUser
}

// commandLine mirrors ps: kernel threads without an argv show their name in
// brackets.
func commandLine(ctx context.Context, p *process.Process) string {
	if cmdline, err := p.CmdlineWithContext(ctx); err == nil && cmdline != "" {
		return cmdline
	}
	if name, err := p.NameWithContext(ctx); err == nil && name != "" {
		return "[" + name + "]"
	}
	return ""
}

// SearchPath splits a PATH-style value into its directories, in order.
func SearchPath(value string) []string {
	if value == "" {
		return nil
	}
	return filepath.SplitList(value)
}
