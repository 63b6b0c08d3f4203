package marker

import "strconv"

// Line is one rendered buffer line as the host view reports it: the number
// of screen rows it occupies and the timestamp of the message it belongs to.
type Line struct {
	Rows      int
	Timestamp string
}

// LastVisibleIndex returns the index of the candidate mark line: scanning
// from the first visible line, the last line that is fully or partially
// within height rows. Returns -1 for an empty sequence.
func LastVisibleIndex(lines []Line, height int) int {
	if len(lines) == 0 {
		return -1
	}
	rows := 0
	for i, l := range lines {
		rows += l.Rows
		if rows >= height {
			return i
		}
	}
	return len(lines) - 1
}

// tsAfter reports whether a is strictly newer than b. Timestamps are Slack
// "seconds.sequence" strings; the empty string is the never-pushed sentinel,
// older than any real timestamp.
func tsAfter(a, b string) bool {
	if a == "" {
		return false
	}
	if b == "" {
		return true
	}
	asec, aseq := splitTS(a)
	bsec, bseq := splitTS(b)
	if asec != bsec {
		return asec > bsec
	}
	return aseq > bseq
}

// splitTS relies on the sequence suffix being fixed-width (six digits), so
// integer comparison of the parts matches the API's ordering.
func splitTS(ts string) (sec, seq int64) {
	for i := 0; i < len(ts); i++ {
		if ts[i] == '.' {
			sec, _ = strconv.ParseInt(ts[:i], 10, 64)
			seq, _ = strconv.ParseInt(ts[i+1:], 10, 64)
			return sec, seq
		}
	}
	sec, _ = strconv.ParseInt(ts, 10, 64)
	return sec, 0
}
