package tree

// BuildArgs maps a selection onto the runner path arguments for the subtree
// rooted at node.
//
// With includes, an included node contributes its own path and everything
// else recurses. With excludes, an excluded node contributes nothing, other
// leaves contribute their path and other nodes recurse. Without a selection
// the node path is passed as is. Duplicates are kept.
func BuildArgs(node *Node, includes, excludes map[string]bool) []string {
	switch {
	case len(includes) > 0:
		if includes[node.ID] {
			return []string{node.URI}
		}
		return childArgs(node, includes, excludes)
	case len(excludes) > 0:
		if excludes[node.ID] {
			return nil
		}
		if node.IsLeaf() {
			return []string{node.URI}
		}
		return childArgs(node, includes, excludes)
	default:
		return []string{node.URI}
	}
}

func childArgs(node *Node, includes, excludes map[string]bool) []string {
	var args []string
	for _, child := range node.children {
		args = append(args, BuildArgs(child, includes, excludes)...)
	}
	return args
}
