package selector

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"memo/model"
)

// Line formats one entry as ordinal<TAB>command. Newlines inside the
// command are written as a literal \n so the entry stays on one line.
func Line(e model.Entry) string {
	return strconv.Itoa(e.Ordinal) + "\t" + strings.ReplaceAll(e.Command, "\n", `\n`)
}

// Lines formats every entry, in order.
func Lines(entries []model.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = Line(e)
	}
	return out
}

// Write writes one line per entry to w.
func Write(w io.Writer, entries []model.Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := bw.WriteString(Line(e) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ParseSelection returns the ordinal before the first tab of a line
// echoed back by a picker.
func ParseSelection(line string) (int, error) {
	line = strings.TrimRight(line, "\r\n")
	prefix, _, ok := strings.Cut(line, "\t")
	if !ok {
		return 0, fmt.Errorf("selector: no tab in %q: %w", line, model.ErrMalformedSelection)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(prefix), 10, 31)
	if err != nil {
		return 0, fmt.Errorf("selector: bad ordinal %q: %w", prefix, model.ErrMalformedSelection)
	}
	return int(n), nil
}
