package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// bareKill is the value pflag assigns when --kill is given without "=ids".
// It cannot parse as a fork id.
const bareKill = "-"

// pidList collects fork ids from repeated --kill flags. A bare --kill only
// switches kill mode on; the ids then follow as positional arguments.
type pidList struct {
	set bool
	ids []int
}

var _ pflag.Value = (*pidList)(nil)

func (p *pidList) String() string {
	parts := make([]string, 0, len(p.ids))
	for _, id := range p.ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}

func (p *pidList) Set(value string) error {
	p.set = true
	if value == bareKill {
		return nil
	}
	ids, err := parseIDs(strings.Split(value, ","))
	if err != nil {
		return err
	}
	p.ids = append(p.ids, ids...)
	return nil
}

func (p *pidList) Type() string {
	return "ids"
}

// withArgs returns the flag ids followed by the ids given as arguments.
func (p *pidList) withArgs(args []string) ([]int, error) {
	extra, err := parseIDs(args)
	if err != nil {
		return nil, err
	}
	ids := append([]int(nil), p.ids...)
	return append(ids, extra...), nil
}

func parseIDs(values []string) ([]int, error) {
	var ids []int
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return nil, usageErrorf("invalid fork id %q", raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
