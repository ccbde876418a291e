package domain

import "context"

// ProcessInfo is the subset of the OS process table the scanner needs.
type ProcessInfo struct {
	PID     int32
	Name    string
	Cmdline []string
}

// ProcessLister enumerates processes visible to the current user.
// A per-process failure is reported in that entry's Outcome; the returned error
// is reserved for failing to read the process table at all.
type ProcessLister interface {
	ListProcesses(ctx context.Context) ([]Outcome[ProcessInfo], error)
}

// SocketLister returns the local ports of the TCP sockets pid is listening on.
type SocketLister interface {
	ListeningPorts(ctx context.Context, pid int32) ([]int, error)
}
