package treeview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starford/nbshell/internal/sidebar"
)

func TestPlain(t *testing.T) {
	tree := sidebar.Tree{
		{Name: "Ops", IsRoot: true, Expanded: true, Children: []sidebar.Leaf{{ID: "n1", Name: "Disk"}, {ID: "n2", Name: "CPU"}}},
		{Name: "Infra", IsRoot: true, Children: []sidebar.Leaf{{ID: "n3", Name: "Net"}}},
	}

	want := "▾ Ops\n" +
		"    Disk (n1) *\n" +
		"    CPU (n2)\n" +
		"▸ Infra\n" +
		"    Net (n3)\n"
	assert.Equal(t, want, Plain(tree, "n1"))
}

func TestPlainEmpty(t *testing.T) {
	assert.Equal(t, "(no notebooks)\n", Plain(nil, ""))
}

func TestRenderKeepsText(t *testing.T) {
	tree := sidebar.Tree{{Name: "Ops", Children: []sidebar.Leaf{{ID: "n1", Name: "Disk"}}}}
	out := Render(tree, "")
	assert.Contains(t, out, "Ops")
	assert.Contains(t, out, "Disk")
}
