// Package shipper forwards audit events from per-branch JSONL files to a
// streaming sink with at-least-once delivery. A tailer reads newly appended
// lines from a byte offset, a checkpoint store persists the last shipped
// offset, and a sink abstracts the downstream stream.
package shipper

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// Entry is one tailed audit line plus its position accounting.
type Entry struct {
	Line []byte
	// EndOffset is the byte offset just past this line's newline. Committing
	// it as the checkpoint makes the line durably "shipped".
	EndOffset int64
	// LineNo is the 1-based line number within the file.
	LineNo int64
}

// TailResult is what one tail pass over a file produced.
type TailResult struct {
	Entries []Entry
	// NextOffset is the offset after the last complete line read. A partial
	// trailing line (no newline yet) is not included and not consumed.
	NextOffset int64
	NextLine   int64
	// Truncated reports that the file shrank below the requested offset,
	// which means it was rotated or rewritten; the caller reset to zero.
	Truncated bool
}

// TailFile reads up to maxLines complete lines from path starting at offset.
// maxLines <= 0 means no limit. Empty lines are skipped but still consume
// offset. If the file is smaller than offset the tailer resets to the start
// and reports truncation.
func TailFile(path string, offset, startLine int64, maxLines int) (TailResult, error) {
	res := TailResult{NextOffset: offset, NextLine: startLine}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return res, nil
		}
		return res, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return res, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() < offset {
		// Shrunk since the checkpoint: rotated or rewritten. Start over.
		res.Truncated = true
		res.NextOffset = 0
		res.NextLine = 0
		offset = 0
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return res, fmt.Errorf("failed to seek %s: %w", path, err)
	}

	reader := bufio.NewReaderSize(f, 64*1024)
	for maxLines <= 0 || len(res.Entries) < maxLines {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			// A partial trailing line stays unconsumed until the writer
			// finishes it with a newline.
			break
		}

		res.NextOffset += int64(len(line))
		trimmed := bytes.TrimRight(line, "\n")
		if len(trimmed) == 0 {
			continue
		}
		res.NextLine++
		res.Entries = append(res.Entries, Entry{
			Line:      append([]byte(nil), trimmed...),
			EndOffset: res.NextOffset,
			LineNo:    res.NextLine,
		})
	}

	return res, nil
}
