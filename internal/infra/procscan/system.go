package procscan

import (
	"context"
	"errors"
	"io/fs"
	"syscall"

	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"mcpshadow/internal/domain"
)

const listenStatus = "LISTEN"

// SystemTable reads the live OS process and socket tables.
type SystemTable struct{}

func NewSystemTable() *SystemTable {
	return &SystemTable{}
}

func (t *SystemTable) ListProcesses(ctx context.Context) ([]domain.Outcome[domain.ProcessInfo], error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, domain.E(domain.CodeProcessAccess, "procscan.list", "read process table", err)
	}

	out := make([]domain.Outcome[domain.ProcessInfo], 0, len(procs))
	for _, proc := range procs {
		info := domain.ProcessInfo{PID: proc.Pid}

		cmdline, err := proc.CmdlineSliceWithContext(ctx)
		if err != nil {
			out = append(out, domain.Outcome[domain.ProcessInfo]{Value: info, Err: accessError(err)})
			continue
		}
		info.Cmdline = cmdline

		// The name is informational; a process whose name cannot be read is still a candidate.
		if name, err := proc.NameWithContext(ctx); err == nil {
			info.Name = name
		}
		out = append(out, domain.Ok(info))
	}
	return out, nil
}

// ListeningPorts returns local ports in socket table order without duplicates,
// so a port bound on both IPv4 and IPv6 is reported once.
func (t *SystemTable) ListeningPorts(ctx context.Context, pid int32) ([]int, error) {
	conns, err := net.ConnectionsPidWithContext(ctx, "tcp", pid)
	if err != nil {
		return nil, accessError(err)
	}

	ports := []int{}
	seen := make(map[int]struct{}, len(conns))
	for _, conn := range conns {
		if conn.Status != listenStatus {
			continue
		}
		port := int(conn.Laddr.Port)
		if _, ok := seen[port]; ok {
			continue
		}
		seen[port] = struct{}{}
		ports = append(ports, port)
	}
	return ports, nil
}

func accessError(err error) error {
	switch {
	case errors.Is(err, process.ErrorProcessNotRunning), errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ESRCH):
		return domain.E(domain.CodeProcessAccess, "procscan.inspect", "", errors.Join(domain.ErrProcessGone, err))
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return domain.E(domain.CodeProcessAccess, "procscan.inspect", "", errors.Join(domain.ErrAccessDenied, err))
	default:
		return domain.E(domain.CodeProcessAccess, "procscan.inspect", "", err)
	}
}

var (
	_ domain.ProcessLister = (*SystemTable)(nil)
	_ domain.SocketLister  = (*SystemTable)(nil)
)
