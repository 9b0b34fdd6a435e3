package sidebar

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/nbshell/internal/models"
)

func rec(id, category string) models.NotebookRecord {
	return models.NotebookRecord{ID: id, DisplayName: "note " + id, CategoryName: category}
}

func leaf(id string) Leaf {
	return Leaf{ID: id, Name: "note " + id}
}

func TestRebuild_GroupsByCategory(t *testing.T) {
	records := []models.NotebookRecord{rec("n1", "Ops"), rec("n2", "Ops"), rec("n3", "Infra")}

	got := Rebuild(records, nil)
	want := Tree{
		{Name: "Ops", IsRoot: true, Children: []Leaf{leaf("n1"), leaf("n2")}},
		{Name: "Infra", IsRoot: true, Children: []Leaf{leaf("n3")}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rebuild mismatch (-want +got):\n%s", diff)
	}

	id, ok := DefaultLandingID(got)
	assert.True(t, ok)
	assert.Equal(t, "n1", id)
}

func TestRebuild_DeduplicatesFirstOccurrenceWins(t *testing.T) {
	records := []models.NotebookRecord{rec("a", "Ops"), rec("b", "Ops"), rec("a", "Ops"), rec("c", "Ops")}
	got := Rebuild(records, nil)
	require.Len(t, got, 1)
	if diff := cmp.Diff([]Leaf{leaf("a"), leaf("b"), leaf("c")}, got[0].Children); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestRebuild_EvenRepeatKeepsFirst(t *testing.T) {
	records := []models.NotebookRecord{
		{ID: "a", DisplayName: "first", CategoryName: "Ops"},
		{ID: "a", DisplayName: "second", CategoryName: "Ops"},
	}
	got := Rebuild(records, nil)
	require.Len(t, got, 1)
	assert.Equal(t, []Leaf{{ID: "a", Name: "first"}}, got[0].Children)
}

func TestRebuild_Idempotent(t *testing.T) {
	prevs := []Tree{
		nil,
		{{Name: "Infra", IsRoot: true, Expanded: true, Children: []Leaf{leaf("x")}}},
		{{Name: "Ops", IsRoot: true, Children: []Leaf{leaf("n2"), leaf("z")}}},
	}
	records := []models.NotebookRecord{rec("n1", "Ops"), rec("n2", "Ops"), rec("n3", "Infra"), rec("n1", "Ops")}

	for _, prev := range prevs {
		once := Rebuild(records, prev)
		twice := Rebuild(records, once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("Rebuild not idempotent (-once +twice):\n%s", diff)
		}
	}
}

func TestRebuild_PreservesPreviousNodes(t *testing.T) {
	prev := Tree{
		{Name: "Infra", IsRoot: true, Expanded: true, Children: []Leaf{leaf("old")}},
		{Name: "Archive", IsRoot: true, Children: []Leaf{leaf("arc")}},
	}
	prevCopy := prev.Clone()

	got := Rebuild([]models.NotebookRecord{rec("n1", "Ops"), rec("n3", "Infra")}, prev)

	want := Tree{
		{Name: "Infra", IsRoot: true, Expanded: true, Children: []Leaf{leaf("old"), leaf("n3")}},
		{Name: "Archive", IsRoot: true, Children: []Leaf{leaf("arc")}},
		{Name: "Ops", IsRoot: true, Children: []Leaf{leaf("n1")}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rebuild mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(prevCopy, prev); diff != "" {
		t.Errorf("prev was modified (-before +after):\n%s", diff)
	}
}

func TestRebuild_SkipsMalformedRecords(t *testing.T) {
	records := []models.NotebookRecord{
		{ID: "", DisplayName: "no id", CategoryName: "Ops"},
		{ID: "root", DisplayName: "no category"},
		rec("ok", "Ops"),
	}
	got := Rebuild(records, nil)
	require.Len(t, got, 1)
	assert.Equal(t, []Leaf{leaf("ok")}, got[0].Children)
}

func TestRebuild_Empty(t *testing.T) {
	assert.Empty(t, Rebuild(nil, nil))
	_, ok := DefaultLandingID(nil)
	assert.False(t, ok)
}

func TestDedupe(t *testing.T) {
	in := []Leaf{leaf("a"), leaf("b"), leaf("a"), leaf("c"), leaf("b"), leaf("a")}
	once := Dedupe(in)
	assert.Equal(t, []Leaf{leaf("a"), leaf("b"), leaf("c")}, once)
	assert.Equal(t, once, Dedupe(once))
	assert.Empty(t, Dedupe(nil))
}

func TestIsRouteActiveAndFirstLeaf(t *testing.T) {
	n := CategoryNode{Name: "Ops", IsRoot: true, Children: []Leaf{leaf("n1"), leaf("n2")}}
	assert.True(t, IsRouteActive(n, "n2"))
	assert.False(t, IsRouteActive(n, "n9"))
	assert.False(t, IsRouteActive(n, ""))

	first, ok := FirstLeaf(n)
	assert.True(t, ok)
	assert.Equal(t, "n1", first.ID)

	_, ok = FirstLeaf(CategoryNode{Name: "Empty"})
	assert.False(t, ok)
}
