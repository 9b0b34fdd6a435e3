// Package treeview renders the sidebar tree for terminals.
package treeview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/nbshell/internal/sidebar"
)

// Styles controls how each part of the tree is rendered.
type Styles struct {
	Category lipgloss.Style
	Leaf     lipgloss.Style
	ID       lipgloss.Style
	Landing  lipgloss.Style
	Empty    lipgloss.Style
}

// DefaultStyles returns the colored terminal styles.
func DefaultStyles() Styles {
	return Styles{
		Category: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
		Leaf:     lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		ID:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
		Landing:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Empty:    lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	}
}

// PlainStyles returns styles that add no escape sequences.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Category: s, Leaf: s, ID: s, Landing: s, Empty: s}
}

// Render draws the tree with the default styles.
func Render(tree sidebar.Tree, landing string) string {
	return RenderWith(tree, landing, DefaultStyles())
}

// Plain draws the tree without colors.
func Plain(tree sidebar.Tree, landing string) string {
	return RenderWith(tree, landing, PlainStyles())
}

// RenderWith draws one line per category followed by its notebooks. The
// default landing notebook is marked with a star.
func RenderWith(tree sidebar.Tree, landing string, st Styles) string {
	if len(tree) == 0 {
		return st.Empty.Render("(no notebooks)") + "\n"
	}

	var b strings.Builder
	for _, node := range tree {
		marker := "▸"
		if node.Expanded {
			marker = "▾"
		}
		b.WriteString(marker + " " + st.Category.Render(node.Name) + "\n")
		for _, l := range node.Children {
			line := "    " + st.Leaf.Render(l.Name) + " " + st.ID.Render("("+l.ID+")")
			if l.ID == landing {
				line += " " + st.Landing.Render("*")
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}
