package tailer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Batch is the result of one incremental read.
type Batch struct {
	// Lines holds the complete lines read, terminators stripped.
	Lines []string
	// Cursor reflects the file identity and the offset just past the
	// last complete line consumed. Committing it is the caller's job.
	Cursor Cursor
	// Rotated is set when the read started over because the file was
	// replaced (identity change) or truncated (size below the offset).
	Rotated bool
}

// NextBatch reads everything new since the cursor, stopping at the last
// complete line. A missing source file is not an error: the batch is
// empty and the cursor unchanged, so a temporarily absent log resumes
// cleanly when it reappears.
func NextBatch(path string, cur Cursor) (Batch, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Batch{Cursor: cur}, nil
		}
		return Batch{Cursor: cur}, fmt.Errorf("stat %s: %w", path, err)
	}

	dev, ino, idOK := fileIdentity(fi)
	size := fi.Size()

	next := cur
	if idOK {
		next.Device = dev
		next.Inode = ino
	}
	next.LastRun = time.Now().UTC()

	rotated := false
	offset := cur.Offset
	if idOK && !cur.sameIdentity(dev, ino) {
		// Renamed-and-recreated: a new file lives at this path now.
		if cur.Inode != 0 {
			rotated = true
		}
		offset = 0
	} else if size < offset {
		// Truncated in place, same inode. Some rotation tools (and
		// copytruncate setups) do this instead of renaming.
		rotated = true
		offset = 0
	}

	if size == offset {
		next.Offset = offset
		return Batch{Cursor: next, Rotated: rotated}, nil
	}

	f, err := os.Open(filepath.Clean(path)) // #nosec G304 // operator-supplied source path
	if err != nil {
		return Batch{Cursor: cur}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return Batch{Cursor: cur}, fmt.Errorf("seek %s: %w", path, err)
	}

	// Read only up to the size we statted; bytes appended after the
	// stat belong to the next run.
	data, err := io.ReadAll(io.LimitReader(f, size-offset))
	if err != nil {
		return Batch{Cursor: cur}, fmt.Errorf("read %s: %w", path, err)
	}

	lastNL := bytes.LastIndexByte(data, '\n')
	if lastNL < 0 {
		// Only a partial line so far; leave it for a later run once
		// its terminator is written.
		next.Offset = offset
		return Batch{Cursor: next, Rotated: rotated}, nil
	}

	lines := splitLines(data[:lastNL+1])
	next.Offset = offset + int64(lastNL) + 1
	return Batch{Lines: lines, Cursor: next, Rotated: rotated}, nil
}

func splitLines(data []byte) []string {
	raw := strings.Split(string(data), "\n")
	lines := raw[:len(raw)-1] // data ends with '\n', drop the empty tail
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
