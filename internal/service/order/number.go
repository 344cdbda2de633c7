package order

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const numberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// swapped out in tests to force collisions
var newOrderNumber = NewOrderNumber

// NewOrderNumber builds a human-readable order number from a millisecond
// timestamp and a short random suffix, e.g. ORD-MB3K2F8A-7QX1. The unique
// index on orders.order_number catches the rare collision and Place retries
// once with a fresh number.
func NewOrderNumber() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	suffix := make([]byte, len(buf))
	for i, b := range buf {
		suffix[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}

	return "ORD-" + ts + "-" + string(suffix)
}
