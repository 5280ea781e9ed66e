// Package transport defines the contract between the daemon's datagram
// listeners and the command engine above them. A transport owns a socket,
// frames nothing (one datagram is one command), and hands each received
// datagram upward through a CommandReceiver.
package transport

// CommandDelivery carries one received datagram from a transport to the
// command engine.
type CommandDelivery struct {
	// Data is the raw datagram. It is valid only for the duration of the
	// OnRecvCommand call; receivers must copy anything they keep.
	Data []byte

	// OutFD is the output descriptor that accompanied the datagram, or
	// sys.InvalidFD when the transport cannot carry descriptors. Ownership
	// transfers to the receiver.
	OutFD int

	// Transport is the tag of the transport instance that received the
	// datagram, for metrics and diagnostics.
	Transport string
}

// CommandReceiver is implemented by the component sitting above the
// transports. OnRecvCommand is invoked synchronously for each datagram; its
// result reports whether the command was carried out and is advisory only.
type CommandReceiver interface {
	OnRecvCommand(d *CommandDelivery) bool
}

// TransportOption provides the dependencies a transport needs to operate.
type TransportOption struct {
	// Receiver handles every received datagram.
	Receiver CommandReceiver
}

// Transport is the lifecycle interface every datagram listener implements.
type Transport interface {
	// Start brings the transport online and begins delivering datagrams to
	// the receiver in opt. Non-blocking.
	Start(opt TransportOption) error

	// StopRecv stops accepting new datagrams without releasing the socket,
	// letting the daemon quiesce before a full shutdown.
	StopRecv() error

	// Stop shuts the transport down completely and releases its resources.
	Stop() error
}
