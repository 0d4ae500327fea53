package phpast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/nsisolate/pkg/phpast"
)

func TestWalk_PreOrder(t *testing.T) {
	t.Parallel()

	a := phpast.NewName(phpast.RoleReference, "A")
	b := phpast.NewName(phpast.RoleReference, "B")
	c := phpast.NewName(phpast.RoleReference, "C")

	tree := &phpast.File{Stmts: []phpast.Node{
		&phpast.Generic{Kind: "left", Kids: []phpast.Node{a, b}},
		&phpast.Generic{Kind: "right", Kids: []phpast.Node{c}},
	}}

	var order []string

	phpast.Inspect(tree, func(node phpast.Node) bool {
		switch n := node.(type) {
		case *phpast.File:
			order = append(order, "file")
		case *phpast.Generic:
			order = append(order, n.Kind)
		case *phpast.Name:
			order = append(order, n.String())
		}

		return true
	})

	assert.Equal(t, []string{"file", "left", "A", "B", "right", "C"}, order)
}

func TestWalk_SkipSubtree(t *testing.T) {
	t.Parallel()

	hidden := phpast.NewName(phpast.RoleReference, "Hidden")
	tree := &phpast.File{Stmts: []phpast.Node{
		&phpast.Generic{Kind: "skip", Kids: []phpast.Node{hidden}},
	}}

	seen := false

	phpast.Inspect(tree, func(node phpast.Node) bool {
		if n, ok := node.(*phpast.Generic); ok && n.Kind == "skip" {
			return false
		}

		if node == phpast.Node(hidden) {
			seen = true
		}

		return true
	})

	assert.False(t, seen)
}

func TestWalk_NilRoot(t *testing.T) {
	t.Parallel()

	calls := 0

	phpast.Walk(nil, phpast.VisitorFunc(func(phpast.Node) bool {
		calls++

		return true
	}))

	assert.Zero(t, calls)
}

func TestName_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `Vendor\Foo`, phpast.NewName(phpast.RoleReference, "Vendor", "Foo").String())
	assert.Equal(t, `\Vendor\Foo`, phpast.NewFullyQualifiedName(phpast.RoleReference, "Vendor", "Foo").String())
	assert.Equal(t, `namespace\Foo`, (&phpast.Name{Parts: []string{"Foo"}, Relative: true}).String())
	assert.False(t, phpast.NewName(phpast.RoleReference, "A", "B").Modified())
	assert.False(t, phpast.NewString("x").Modified())
}
