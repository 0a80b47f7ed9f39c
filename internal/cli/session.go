package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/kill-code/internal/cliutil"
	"github.com/Paintersrp/kill-code/internal/forks"
	"github.com/Paintersrp/kill-code/internal/killer"
	"github.com/Paintersrp/kill-code/internal/metrics"
	"github.com/Paintersrp/kill-code/internal/tui"
)

var errNotTerminal = errors.New("interactive mode needs a terminal on stdin and stdout; rerun with --no-tty")

type session struct {
	cmd      *cobra.Command
	deps     dependencies
	opts     *options
	mode     forks.Mode
	forks    []forks.Fork
	logger   *logrus.Logger
	killOpts killer.Options
	selfSig  string
}

func (s *session) list() error {
	out := s.cmd.OutOrStdout()
	if s.opts.json {
		enc := json.NewEncoder(out)
		for _, f := range s.forks {
			cliutil.EncodeFork(enc, s.cmd.ErrOrStderr(), f, s.opts.redact)
		}
		return nil
	}
	for _, f := range s.forks {
		fmt.Fprintln(out, cliutil.DisplaySummary(f, s.opts.redact))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "To kill a fork, run %s --kill <id>.\n", commandName)
	return nil
}

func (s *session) killFromFlags(ctx context.Context) error {
	targets, err := forks.ResolveTargets(s.forks, s.mode)
	if err != nil {
		return &UsageError{Err: err}
	}
	for _, id := range forks.MissingTargets(s.forks, s.mode.KillIDs) {
		s.logger.WithField("pid", id).Warn("no vscode-server fork with this id")
	}
	if len(targets) == 0 {
		fmt.Fprintln(s.cmd.OutOrStdout(), "Nothing to do")
		return nil
	}

	k := s.deps.newKiller(s.killOpts, s.logger)
	results := k.KillAll(ctx, killTargets(targets))
	s.report(results)
	if killer.Failed(results) {
		return errKillFailed
	}
	return nil
}

func (s *session) interactive(ctx context.Context) error {
	if !s.deps.isTerminal() {
		return errNotTerminal
	}

	choice, err := s.deps.runMenu(ctx, s.forks,
		tui.WithSelfSignature(s.selfSig),
		tui.WithRedaction(s.opts.redact),
	)
	if err != nil {
		return err
	}
	if !choice.Confirmed {
		s.logger.Debug("nothing selected")
		return nil
	}

	k := s.deps.newKiller(s.killOpts, s.logger)
	result := k.Kill(ctx, killTargets([]forks.Fork{choice.Fork})[0])
	s.report([]killer.Result{result})
	if result.Err != nil {
		return errKillFailed
	}
	fmt.Fprintln(s.cmd.OutOrStdout(), "Done")
	return nil
}

// report records metrics for every result and prints failures to stderr.
func (s *session) report(results []killer.Result) {
	for _, r := range results {
		signals := make([]string, 0, len(r.Signals))
		for _, sig := range r.Signals {
			signals = append(signals, killer.SignalName(sig))
		}

		outcome := metrics.OutcomeTerminated
		switch {
		case r.Err != nil:
			outcome = metrics.OutcomeFailed
		case r.AlreadyGone:
			outcome = metrics.OutcomeAlreadyGone
		}
		metrics.ObserveKill(outcome, signals, r.Elapsed)

		entry := s.logger.WithField("pid", r.PID).WithField("elapsed", units.HumanDuration(r.Elapsed))
		if r.Err != nil {
			fmt.Fprintf(s.cmd.ErrOrStderr(), "error: kill fork %d: %v\n", r.PID, r.Err)
			entry.Debug("fork survived")
			continue
		}
		entry.WithField("outcome", outcome).Debug("fork terminated")
	}
}

func killTargets(items []forks.Fork) []killer.Target {
	targets := make([]killer.Target, 0, len(items))
	for _, f := range items {
		targets = append(targets, killer.Target{
			PID:     f.ID,
			Members: append([]int(nil), f.Members...),
		})
	}
	return targets
}
