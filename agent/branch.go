package agent

// buildBranchPath composes a hierarchical branch identifier used to isolate
// state mutations of concurrently executing children. An empty parent
// returns child and vice versa; otherwise "parent.child".
func buildBranchPath(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}
