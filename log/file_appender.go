package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const _megabyte = 1024 * 1024

// FileAppender writes log entries to a file, rotating it by size. In
// async mode entries are queued on a channel and written by a background
// goroutine on a flush interval; in sync mode writes happen inline under
// a mutex.
type FileAppender struct {
	path      string
	splitSize int64

	mu      sync.Mutex
	file    *os.File
	written int64

	async   bool
	queue   chan []byte
	flushed chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewFileAppender creates a file appender from cfg. The log directory is
// created if missing; open failures surface on the first Write rather
// than here, so a misconfigured path cannot stop daemon startup.
func NewFileAppender(cfg *LogCfg) *FileAppender {
	fa := &FileAppender{
		path:      cfg.LogPath,
		splitSize: int64(cfg.FileSplitMB) * _megabyte,
		async:     cfg.IsAsync,
	}
	if fa.async {
		fa.queue = make(chan []byte, cfg.AsyncCacheSize)
		fa.flushed = make(chan struct{})
		fa.done = make(chan struct{})
		fa.wg.Add(1)
		go fa.writeLoop(time.Duration(cfg.AsyncWriteMillSec) * time.Millisecond)
	}
	return fa
}

// Write queues or writes one entry. In async mode a full queue drops the
// entry instead of blocking the logging path.
func (fa *FileAppender) Write(buf []byte) (int, error) {
	if fa.async {
		cp := make([]byte, len(buf))
		copy(cp, buf)
		select {
		case fa.queue <- cp:
			return len(buf), nil
		default:
			return 0, fmt.Errorf("log queue full, entry dropped")
		}
	}

	fa.mu.Lock()
	defer fa.mu.Unlock()
	return fa.writeLocked(buf)
}

func (fa *FileAppender) writeLocked(buf []byte) (int, error) {
	if fa.file == nil {
		if err := fa.openLocked(); err != nil {
			return 0, err
		}
	}
	if fa.splitSize > 0 && fa.written+int64(len(buf)) > fa.splitSize {
		if err := fa.rotateLocked(); err != nil {
			return 0, err
		}
	}
	n, err := fa.file.Write(buf)
	fa.written += int64(n)
	return n, err
}

func (fa *FileAppender) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(fa.path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(fa.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	fa.file = f
	fa.written = st.Size()
	return nil
}

// rotateLocked renames the active file with a timestamp suffix and starts
// a fresh one.
func (fa *FileAppender) rotateLocked() error {
	if err := fa.file.Close(); err != nil {
		return err
	}
	fa.file = nil
	rotated := fmt.Sprintf("%s.%s", fa.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(fa.path, rotated); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	return fa.openLocked()
}

func (fa *FileAppender) writeLoop(interval time.Duration) {
	defer fa.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case buf := <-fa.queue:
			fa.mu.Lock()
			_, _ = fa.writeLocked(buf)
			fa.mu.Unlock()
		case <-ticker.C:
			// Periodic wakeup keeps the file current even when the
			// queue select below starves the flush channel.
		case <-fa.flushed:
			fa.drain()
			fa.flushed <- struct{}{}
		case <-fa.done:
			fa.drain()
			return
		}
	}
}

func (fa *FileAppender) drain() {
	for {
		select {
		case buf := <-fa.queue:
			fa.mu.Lock()
			_, _ = fa.writeLocked(buf)
			fa.mu.Unlock()
		default:
			return
		}
	}
}

// Refresh blocks until every queued entry has been written.
func (fa *FileAppender) Refresh() error {
	if fa.async {
		fa.flushed <- struct{}{}
		<-fa.flushed
	}
	return nil
}

// Close flushes queued entries and closes the file.
func (fa *FileAppender) Close() error {
	if fa.async {
		close(fa.done)
		fa.wg.Wait()
	}
	fa.mu.Lock()
	defer fa.mu.Unlock()
	if fa.file != nil {
		err := fa.file.Close()
		fa.file = nil
		return err
	}
	return nil
}
