package bcbp

import "fmt"

// MalformedBarcodeError reports a field that could not be read. Offset is
// the byte position of the field in the barcode text.
type MalformedBarcodeError struct {
	Offset int
	Field  string
	Reason string
	// Leg is the 1-based leg the field belongs to, 0 for the header.
	Leg int
}

func (e *MalformedBarcodeError) Error() string {
	if e.Leg > 0 {
		return fmt.Sprintf("malformed boarding pass: leg %d %s at offset %d: %s", e.Leg, e.Field, e.Offset, e.Reason)
	}
	return fmt.Sprintf("malformed boarding pass: %s at offset %d: %s", e.Field, e.Offset, e.Reason)
}
