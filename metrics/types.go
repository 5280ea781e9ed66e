// Package metrics defines the types and constants used for metric collection and reporting.
package metrics

// Policy defines the aggregation policy for metric values.
// It determines how multiple values for the same metric should be combined over a time window.
type Policy int

const (
	Policy_None Policy = iota // Policy_None indicates no specific aggregation policy. The reporting system may use a default.
	Policy_Set                // Policy_Set represents an instantaneous value; the last reported value wins.
	Policy_Sum                // Policy_Sum represents a cumulative value, summing all reported values.
	Policy_Avg                // Policy_Avg represents the average of all reported values.
)

// Value represents a metric value as a float64.
type Value float64

// Dimension represents metric dimensions as key-value pairs.
// Dimensions provide contextual information for metrics, such as transport name or drop reason.
type Dimension map[string]string

// Group related constants, prefixed with Group.
const (
	// GroupDrvlogd is the group name for drvlogd daemon metrics.
	GroupDrvlogd = "drvlogd"
)

// Metric related constants
const (
	// NameDatagramRecvTotal: Total number of datagrams received by the transport layer.
	// group:drvlogd dimension:transport
	NameDatagramRecvTotal = "datagram_recv_total"

	// NameDatagramRecvErrTotal: Total number of receive failures in the transport layer.
	// group:drvlogd dimension:transport
	NameDatagramRecvErrTotal = "datagram_recv_err_total"

	// NameDatagramOversizeTotal: Total number of datagrams larger than the command size limit.
	// Oversize input is truncated, not dropped.
	// group:drvlogd dimension:transport
	NameDatagramOversizeTotal = "datagram_oversize_total"

	// NameCommandDropTotal: Total number of commands dropped before reaching the log buffer.
	// group:drvlogd dimension:reason
	NameCommandDropTotal = "command_drop_total"

	// NameLogEvictionTotal: Total number of buffer clears forced by an incoming message
	// that could not fit alongside older entries.
	NameLogEvictionTotal = "log_eviction_total"

	// NameLogBufferUsedBytes: Bytes currently occupied in the message buffer.
	NameLogBufferUsedBytes = "log_buffer_used_bytes"

	// NameDumpTotal: Total number of dump requests processed.
	NameDumpTotal = "dump_total"

	// NameDumpEINTRSkipTotal: Total number of log entries skipped during a dump
	// because the output write was interrupted.
	NameDumpEINTRSkipTotal = "dump_eintr_skip_total"

	// NameDumpAbortTotal: Total number of dumps aborted on an unrecoverable output error.
	NameDumpAbortTotal = "dump_abort_total"
)

// Dimension related definitions, must be prefixed with Dim. The comment should include the group.
const (
	// DimTransport is the dimension for the receiving transport's tag.
	// group:drvlogd
	DimTransport = "transport"
	// DimReason is the dimension for a drop or rejection reason.
	// group:drvlogd
	DimReason = "reason"
)

// Well-known DimReason values.
const (
	// ReasonShortHeader marks input too small to carry a command header.
	ReasonShortHeader = "short_header"
	// ReasonUnknownOpcode marks a command whose opcode is not recognized.
	ReasonUnknownOpcode = "unknown_opcode"
)
