package discuss

// Build turns an ordered flat list of comments into a forest. A comment is attached under its
// parent whenever the parent is in the list, wherever it appears. A comment whose parent is
// missing or itself becomes a root, and so does the first comment, in input order, of every
// parent cycle. Roots and children keep the input order.
func Build(comments []Comment) []*CommentNode {
	positions := make(map[CommentID]int, len(comments))

	for i := range comments {
		if comments[i].ID == nil {
			continue
		}

		if _, ok := positions[comments[i].ID]; !ok {
			positions[comments[i].ID] = i
		}
	}

	parents := make([]int, len(comments))
	children := make([][]int, len(comments))

	for i := range comments {
		parents[i] = parentPosition(comments[i], i, positions)

		if parents[i] >= 0 {
			children[parents[i]] = append(children[parents[i]], i)
		}
	}

	breakCycles(parents, children)

	nodes := make([]*CommentNode, len(comments))
	for i := range comments {
		nodes[i] = &CommentNode{Comment: comments[i]}
	}

	roots := make([]*CommentNode, 0, len(nodes))

	for i, node := range nodes {
		if parents[i] < 0 {
			roots = append(roots, node)

			continue
		}

		nodes[parents[i]].Children = append(nodes[parents[i]].Children, node)
	}

	assignDepth(roots)

	return roots
}

func parentPosition(comment Comment, position int, positions map[CommentID]int) int {
	if comment.ParentID == nil {
		return -1
	}

	parent, ok := positions[comment.ParentID]
	if !ok || parent == position {
		return -1
	}

	return parent
}

// breakCycles marks everything reachable from the roots. Only members of a parent cycle and their
// replies stay unreached; each cycle is broken by promoting its earliest member to a root.
func breakCycles(parents []int, children [][]int) {
	reached := make([]bool, len(parents))

	var stack []int

	mark := func(from int) {
		stack = append(stack[:0], from)

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if reached[i] {
				continue
			}

			reached[i] = true
			stack = append(stack, children[i]...)
		}
	}

	for i, parent := range parents {
		if parent < 0 {
			mark(i)
		}
	}

	for i := range parents {
		if reached[i] {
			continue
		}

		head := cycleHead(parents, i)
		parents[head] = -1
		mark(head)
	}
}

// cycleHead follows parents from an unreached comment into the cycle above it and returns the
// cycle member that comes first in the input.
func cycleHead(parents []int, from int) int {
	visited := make(map[int]struct{})

	i := from
	for {
		if _, ok := visited[i]; ok {
			break
		}

		visited[i] = struct{}{}
		i = parents[i]
	}

	head := i

	for j := parents[i]; j != i; j = parents[j] {
		head = min(head, j)
	}

	return head
}

func assignDepth(roots []*CommentNode) {
	level := roots
	depth := 0

	for len(level) > 0 {
		var next []*CommentNode

		for _, node := range level {
			node.Depth = depth
			next = append(next, node.Children...)
		}

		level = next
		depth++
	}
}

// Walk visits every node of the forest in depth-first pre-order.
func Walk(forest []*CommentNode, fn func(node *CommentNode)) {
	for _, node := range forest {
		fn(node)
		Walk(node.Children, fn)
	}
}
