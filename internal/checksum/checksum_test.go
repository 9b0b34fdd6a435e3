package checksum

import (
	"testing"

	"github.com/starford/nbshell/internal/models"
)

func TestRecords_OrderSensitive(t *testing.T) {
	a := []models.NotebookRecord{{ID: "n1", CategoryName: "Ops"}, {ID: "n2", CategoryName: "Ops"}}
	b := []models.NotebookRecord{{ID: "n2", CategoryName: "Ops"}, {ID: "n1", CategoryName: "Ops"}}
	if Records(a) == Records(b) {
		t.Error("reordered listings should hash differently")
	}
	if Records(a) != Records(append([]models.NotebookRecord(nil), a...)) {
		t.Error("equal listings should hash equal")
	}
}

func TestRecords_FieldBoundaries(t *testing.T) {
	a := []models.NotebookRecord{{ID: "ab", DisplayName: "c"}}
	b := []models.NotebookRecord{{ID: "a", DisplayName: "bc"}}
	if Records(a) == Records(b) {
		t.Error("field boundaries should be part of the digest")
	}
}
