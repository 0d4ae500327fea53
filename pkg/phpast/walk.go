package phpast

// Visitor is implemented by tree passes. Enter is called for every node in
// pre-order; returning false skips the node's children.
type Visitor interface {
	Enter(node Node) bool
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(node Node) bool

// Enter calls fn(node).
func (fn VisitorFunc) Enter(node Node) bool { return fn(node) }

// defaultStackCap is the initial traversal stack capacity.
const defaultStackCap = 64

// Walk visits root and its descendants in pre-order (node, then children
// left-to-right). Traversal is iterative so deeply nested files cannot
// exhaust the goroutine stack.
func Walk(root Node, visitor Visitor) {
	if root == nil {
		return
	}

	stack := make([]Node, 0, defaultStackCap)
	stack = append(stack, root)

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if curr == nil || !visitor.Enter(curr) {
			continue
		}

		pushReversedChildren(curr, &stack)
	}
}

// Inspect is Walk with a plain function.
func Inspect(root Node, fn func(Node) bool) {
	Walk(root, VisitorFunc(fn))
}

func pushReversedChildren(node Node, stack *[]Node) {
	children := node.Children()

	for idx := len(children) - 1; idx >= 0; idx-- {
		*stack = append(*stack, children[idx])
	}
}
