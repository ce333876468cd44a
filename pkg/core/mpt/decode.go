package mpt

// DecodeNodes decodes a node encoding and returns the node followed by all
// of its embedded descendants in breadth-first order. Children referenced
// by digest are returned as *HashNode and aren't expanded, empty children
// are skipped.
func DecodeNodes(data []byte) ([]Node, error) {
	root, err := DecodeNode(data)
	if err != nil {
		return nil, err
	}
	var (
		res   []Node
		queue = []Node{root}
	)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.Type() == EmptyT {
			continue
		}
		res = append(res, n)
		switch n := n.(type) {
		case *ExtensionNode:
			queue = append(queue, n.next)
		case *BranchNode:
			queue = append(queue, n.children[:]...)
		case *LeafNode, *HashNode:
		default:
			panic("invalid MPT node type")
		}
	}
	return res, nil
}
