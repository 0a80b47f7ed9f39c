//go:build windows

package killer

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v4/process"
)

var signalNames = map[syscall.Signal]string{
	syscall.SIGINT:  "SIGINT",
	syscall.SIGTERM: "SIGTERM",
	syscall.SIGKILL: "SIGKILL",
	syscall.SIGHUP:  "SIGHUP",
	syscall.SIGQUIT: "SIGQUIT",
}

type systemSignaler struct{}

// Signal terminates the process; groups are addressed through their leader.
func (systemSignaler) Signal(pid int, sig syscall.Signal) error {
	if pid < 0 {
		pid = -pid
	}
	exists, err := process.PidExists(int32(pid))
	if err != nil {
		return err
	}
	if !exists {
		return syscall.ESRCH
	}
	if sig == 0 {
		return nil
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return syscall.ESRCH
	}
	return p.Kill()
}

// ParseSignal accepts "SIGINT", "INT", "int" or a signal number.
func ParseSignal(name string) (syscall.Signal, error) {
	name = strings.TrimSpace(name)
	if n, err := strconv.Atoi(name); err == nil {
		if _, ok := signalNames[syscall.Signal(n)]; ok {
			return syscall.Signal(n), nil
		}
		return 0, fmt.Errorf("unknown signal %q", name)
	}
	upper := strings.ToUpper(name)
	if !strings.HasPrefix(upper, "SIG") {
		upper = "SIG" + upper
	}
	for sig, candidate := range signalNames {
		if candidate == upper {
			return sig, nil
		}
	}
	return 0, fmt.Errorf("unknown signal %q", name)
}

// SignalName returns the conventional name of sig, such as "SIGINT".
func SignalName(sig syscall.Signal) string {
	if name, ok := signalNames[sig]; ok {
		return name
	}
	return "signal " + strconv.Itoa(int(sig))
}
