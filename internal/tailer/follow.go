package tailer

import (
	"io"
	"os"
	"time"

	"github.com/nxadm/tail"
	"go.uber.org/zap"
)

// Follow streams lines from a source file continuously, surviving
// rotation via re-open. It starts from the cursor's effective offset
// (with the same rotation/truncation reset as NextBatch), hands every
// line to handle, and invokes commit with an updated cursor on a fixed
// cadence and once more on shutdown. onRotate fires when the initial
// offset had to be reset; it may be nil.
func Follow(path string, start Cursor, commitEvery time.Duration, handle func(string), commit func(Cursor) error, onRotate func(), stop <-chan struct{}, log *zap.SugaredLogger) error {
	offset := start.Offset
	if fi, err := os.Stat(path); err == nil {
		dev, ino, idOK := fileIdentity(fi)
		rotated := false
		if idOK && !start.sameIdentity(dev, ino) {
			// A fresh cursor (inode 0) is first contact, not rotation.
			rotated = start.Inode != 0
			offset = 0
		} else if fi.Size() < offset {
			rotated = true
			offset = 0
		}
		if rotated && onRotate != nil {
			onRotate()
		}
	} else {
		offset = 0
	}

	t, err := tail.TailFile(path, tail.Config{
		Location:  &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		Follow:    true,
		ReOpen:    true, // handle rotation while following
		MustExist: false,
		Poll:      true, // fallback if inotify fails
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return err
	}

	if commitEvery <= 0 {
		commitEvery = 2 * time.Second
	}
	ticker := time.NewTicker(commitEvery)
	defer ticker.Stop()

	doCommit := func() {
		cur := Cursor{LastRun: time.Now().UTC()}
		if pos, err := t.Tell(); err == nil {
			cur.Offset = pos
		}
		if fi, err := os.Stat(path); err == nil {
			if dev, ino, ok := fileIdentity(fi); ok {
				cur.Device = dev
				cur.Inode = ino
			}
		}
		if err := commit(cur); err != nil {
			log.Warnf("⚠️  Failed to commit cursor for %s: %v", path, err)
		}
	}

	for {
		select {
		case line, ok := <-t.Lines:
			if !ok {
				doCommit()
				return nil
			}
			if line.Err != nil {
				log.Warnf("⚠️  Error reading %s: %v", path, line.Err)
				continue
			}
			handle(line.Text)
		case <-ticker.C:
			doCommit()
		case <-stop:
			// Commit before Stop: Tell is unreliable once the
			// underlying file is closed.
			doCommit()
			t.Stop()
			return nil
		}
	}
}
