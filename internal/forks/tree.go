package forks

// BuildTree links each process to the processes naming it as parent and
// returns the roots of the resulting forest. Processes whose parent is not in
// the snapshot are roots. Children keep input order; leaves get an empty,
// non-nil slice.
func BuildTree(procs []*Process) []*Process {
	byID := make(map[int]*Process, len(procs))
	for _, p := range procs {
		if p == nil {
			continue
		}
		p.Children = []*Process{}
		byID[p.ID] = p
	}

	var roots []*Process
	for _, p := range procs {
		if p == nil {
			continue
		}
		parent, ok := byID[p.ParentID]
		if !ok || parent == p {
			roots = append(roots, p)
			continue
		}
		parent.Children = append(parent.Children, p)
	}
	return roots
}
