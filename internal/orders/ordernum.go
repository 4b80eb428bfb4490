package orders

import (
	"crypto/rand"
	"fmt"
	"time"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber returns a human-readable order number of the form
// ORD-<unix-ms>-<5 random base36 chars>. The timestamp prefix keeps numbers
// roughly sortable; the random suffix makes same-millisecond collisions
// negligible, and the unique index on order_number is the backstop.
func NewOrderNumber() string {
	suffix := make([]byte, 5)
	_, _ = rand.Read(suffix)
	for i, b := range suffix {
		suffix[i] = base36[int(b)%len(base36)]
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}
