package chunker

import (
	"fmt"
)

// Windows are produced by sliding a fixed-size character window advancing by
// size-overlap. Boundaries are rune-based, not sentence- or word-aware: a
// deliberate trade-off that keeps the chunk sequence deterministic for a given
// (text, size, overlap) triple at the cost of occasionally splitting words.

type InvalidChunkConfigError struct {
	Size    int
	Overlap int
}

func (e *InvalidChunkConfigError) Error() string {
	return fmt.Sprintf("invalid chunk config: size=%d overlap=%d (want 0 <= overlap < size)", e.Size, e.Overlap)
}

// Window is a candidate chunk with rune offsets into the source text.
type Window struct {
	Text  string
	Start int
	End   int
}

// Split cuts text into overlapping windows. The final window may be shorter
// than size but is never dropped; empty text yields zero windows. Window
// start offsets are strictly increasing.
func Split(text string, size, overlap int) ([]Window, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, &InvalidChunkConfigError{Size: size, Overlap: overlap}
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := size - overlap
	var windows []Window
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, Window{
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
		if end == len(runes) {
			break
		}
	}
	return windows, nil
}
