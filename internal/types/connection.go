package types

// ConnectionState represents the lifecycle of the push channel connection.
type ConnectionState string

const (
	// ConnectionDisconnected is the state before mount and after unmount.
	ConnectionDisconnected ConnectionState = "disconnected"

	// ConnectionConnecting is entered on mount and after a server-initiated disconnect.
	ConnectionConnecting ConnectionState = "connecting"

	// ConnectionConnected indicates the transport is open.
	ConnectionConnected ConnectionState = "connected"

	// ConnectionReconnecting indicates an unexpected drop; the transport is backing off.
	ConnectionReconnecting ConnectionState = "reconnecting"

	// ConnectionFailed indicates the retry budget is exhausted. Terminal.
	ConnectionFailed ConnectionState = "failed"
)

// AllConnectionStates lists every connection state, in declaration order.
var AllConnectionStates = []ConnectionState{
	ConnectionDisconnected,
	ConnectionConnecting,
	ConnectionConnected,
	ConnectionReconnecting,
	ConnectionFailed,
}

// IsTerminal reports whether no further transitions are possible without a remount.
func (s ConnectionState) IsTerminal() bool {
	return s == ConnectionFailed
}
