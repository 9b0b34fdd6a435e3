package checksum

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/starford/nbshell/internal/models"
)

// Records returns a digest of a notebook listing. Two listings hash equal
// only when they hold the same records in the same order.
func Records(records []models.NotebookRecord) string {
	h := sha256.New()
	for _, r := range records {
		h.Write([]byte(r.ID))
		h.Write([]byte{0})
		h.Write([]byte(r.DisplayName))
		h.Write([]byte{0})
		h.Write([]byte(r.CategoryName))
		h.Write([]byte{0xff})
	}
	return hex.EncodeToString(h.Sum(nil))
}
