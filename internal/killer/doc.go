// Package killer terminates fork subtrees by signalling their process group
// with an escalating schedule of signals.
//
// On Linux and macOS the signals are delivered to the whole process group via
// kill(-pgid). When the fork root does not lead its own group, each member of
// the subtree is signalled individually instead.
//
// On Windows there are no process groups or POSIX signals; every delivery
// terminates the listed processes outright, so the escalation schedule only
// affects retry timing.
package killer
