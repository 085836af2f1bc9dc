package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultOrderNumberPrefix = "BB"

// FormatOrderNumber renders <PREFIX>-<YYYY>-<id padded to 6 digits>.
func FormatOrderNumber(prefix string, createdAt time.Time, id int64) string {
	if prefix == "" {
		prefix = defaultOrderNumberPrefix
	}
	return fmt.Sprintf("%s-%04d-%06d", prefix, createdAt.Year(), id)
}

// placeholderOrderNumber is unique per insert so concurrent transactions never
// collide on the order_number constraint before the real number is known.
func placeholderOrderNumber() string {
	return "PENDING-" + uuid.NewString()
}
