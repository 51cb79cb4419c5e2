package books

import (
	"fmt"

	"github.com/google/uuid"
)

// NewName generates a unique row name with a readable kind prefix, e.g.
// "ALE-6ba7b810-9dad-11d1-80b4-00c04fd430c8". Uniqueness comes from the
// UUID; the prefix only aids debugging and log greps.
func NewName(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
