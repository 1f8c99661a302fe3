package discuss

// CountDescendants returns the number of transitive replies below node. It must be given a tree
// produced by Build, not a flattened one.
func CountDescendants(node *CommentNode) int {
	count := 0

	for _, child := range node.Children {
		count += 1 + CountDescendants(child)
	}

	return count
}

// ReplyCounts computes CountDescendants for every node of the forest in a single pass.
func ReplyCounts(forest []*CommentNode) map[CommentID]int {
	counts := make(map[CommentID]int)

	for _, root := range forest {
		countInto(root, counts)
	}

	return counts
}

func countInto(node *CommentNode, counts map[CommentID]int) int {
	count := 0

	for _, child := range node.Children {
		count += 1 + countInto(child, counts)
	}

	if node.ID != nil {
		counts[node.ID] = count
	}

	return count
}
