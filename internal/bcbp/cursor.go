package bcbp

import (
	"fmt"
	"strconv"
)

// cursor is a read position in the immutable barcode text. Every read
// returns the advanced cursor instead of mutating the receiver.
type cursor struct {
	text string
	pos  int
	leg  int
}

func (c cursor) remaining() int {
	return len(c.text) - c.pos
}

func (c cursor) fail(field, reason string) *MalformedBarcodeError {
	return &MalformedBarcodeError{Offset: c.pos, Field: field, Reason: reason, Leg: c.leg}
}

// take reads n bytes.
func (c cursor) take(n int, field string) (string, cursor, error) {
	if c.remaining() < n {
		return "", c, c.fail(field, fmt.Sprintf("need %d characters, %d left", n, c.remaining()))
	}
	next := c
	next.pos += n
	return c.text[c.pos:next.pos], next, nil
}

// takeHex reads the two-character hexadecimal size fields.
func (c cursor) takeHex(field string) (int, cursor, error) {
	raw, next, err := c.take(2, field)
	if err != nil {
		return 0, c, err
	}
	n, perr := strconv.ParseUint(raw, 16, 8)
	if perr != nil {
		return 0, c, c.fail(field, fmt.Sprintf("%q is not a hexadecimal size", raw))
	}
	return int(n), next, nil
}

// window limits the cursor to the next n bytes.
func (c cursor) window(n int) cursor {
	w := c
	w.text = c.text[:c.pos+n]
	return w
}
