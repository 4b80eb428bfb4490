package orders

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderNumberFormat(t *testing.T) {
	re := regexp.MustCompile(`^ORD-\d{13,}-[0-9A-Z]{5}$`)
	for i := 0; i < 100; i++ {
		num := NewOrderNumber()
		assert.Regexp(t, re, num)
	}
}

func TestNewOrderNumberUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		num := NewOrderNumber()
		assert.False(t, seen[num], "duplicate order number %s", num)
		seen[num] = true
	}
}
