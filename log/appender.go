package log

// LogAppender is the abstraction for a log output destination (console,
// file, and so on). Implementations must be safe for concurrent use.
type LogAppender interface {
	// Write outputs one formatted log entry. The buffer is owned by the
	// caller and may be reused after Write returns; asynchronous
	// implementations must copy it.
	Write(buf []byte) (n int, err error)

	// Refresh forces any buffered entries out to the destination,
	// blocking until they are flushed.
	Refresh() error

	// Close flushes buffered entries and releases resources. It should
	// be called at shutdown to avoid losing output.
	Close() error
}
