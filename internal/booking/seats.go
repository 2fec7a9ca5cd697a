package booking

// Seat labels are a row letter followed by a 1-based seat number
// within the row: "A1" is the first seat of the first row.  Halls are
// limited to 26 rows so a single letter always suffices.

const maxSeatRows = 26

// parseSeatLabel splits a label into its 0-based row index and
// 1-based seat number.  It returns false for anything that is not an
// uppercase row letter followed by digits without leading zeros.
func parseSeatLabel(label string) (row int, num int, ok bool) {
	if len(label) < 2 {
		return 0, 0, false
	}
	r := label[0]
	if r < 'A' || r > 'Z' {
		return 0, 0, false
	}
	digits := label[1:]
	if digits[0] == '0' {
		return 0, 0, false
	}
	n := 0
	for i := 0; i < len(digits); i++ {
		d := digits[i]
		if d < '0' || d > '9' {
			return 0, 0, false
		}
		n = n*10 + int(d-'0')
		if n > 9999 {
			return 0, 0, false
		}
	}
	return int(r - 'A'), n, true
}

// validateSeatLabels checks a requested seat set against a hall grid
// of rows x cols.  Duplicates and out-of-range labels are rejected as
// invalid input.  An empty set is valid here; callers that require at
// least one seat enforce that themselves.
func validateSeatLabels(labels []string, rows, cols uint32) error {
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if _, dup := seen[label]; dup {
			return &SeatInputError{Seat: label, Reason: "duplicate seat in request"}
		}
		seen[label] = struct{}{}
		row, num, ok := parseSeatLabel(label)
		if !ok {
			return &SeatInputError{Seat: label, Reason: "malformed seat label"}
		}
		if row >= int(rows) || num > int(cols) {
			return &SeatInputError{Seat: label, Reason: "seat outside hall layout"}
		}
	}
	return nil
}
