package discuss

// DefaultMaxDepth shows roots, one level of replies, and collapses everything deeper into the
// second reply level.
const DefaultMaxDepth = 2

// Flattener projects a forest onto a display tree whose nesting never exceeds a maximum depth.
type Flattener struct {
	maxDepth int
}

func NewFlattener(maxDepth int) (*Flattener, error) {
	if maxDepth < 0 {
		return nil, &InvalidMaxDepthError{MaxDepth: maxDepth}
	}

	return &Flattener{maxDepth: maxDepth}, nil
}

func (f *Flattener) MaxDepth() int {
	return f.maxDepth
}

// Flatten returns a new forest where a node at depth maxDepth-1 collects its whole subtree as
// direct children at depth maxDepth, in breadth-first order. No node ends up deeper than
// maxDepth. With a maxDepth of 0 there is no collection point: the whole forest is listed
// breadth-first as childless roots. The input forest is not modified.
func (f *Flattener) Flatten(forest []*CommentNode) []*CommentNode {
	return f.flattenLevel(forest, 0)
}

func (f *Flattener) flattenLevel(nodes []*CommentNode, depth int) []*CommentNode {
	if depth >= f.maxDepth {
		return collapse(nodes, depth)
	}

	result := make([]*CommentNode, 0, len(nodes))

	for _, node := range nodes {
		result = append(result, &CommentNode{
			Comment:  node.Comment,
			Children: f.flattenLevel(node.Children, depth+1),
			Depth:    depth,
		})
	}

	return result
}

// collapse lists nodes and all of their descendants breadth-first as childless siblings.
func collapse(nodes []*CommentNode, depth int) []*CommentNode {
	if len(nodes) == 0 {
		return nil
	}

	queue := append([]*CommentNode(nil), nodes...)
	result := make([]*CommentNode, 0, len(queue))

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		result = append(result, &CommentNode{
			Comment: node.Comment,
			Depth:   depth,
		})

		queue = append(queue, node.Children...)
	}

	return result
}
