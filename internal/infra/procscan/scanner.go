package procscan

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"

	"mcpshadow/internal/domain"
	"mcpshadow/internal/infra/telemetry"
)

const opScan = "procscan.scan"

// Scanner flags running processes whose command line looks like an MCP
// server and records the TCP ports they listen on.
type Scanner struct {
	processes domain.ProcessLister
	sockets   domain.SocketLister
	keywords  []string
	selfPID   int32
	logger    *zap.Logger
	metrics   domain.Metrics
}

type ScannerOptions struct {
	Processes domain.ProcessLister
	Sockets   domain.SocketLister
	Keywords  []string
	// SelfPID is excluded from the results. Zero means the current process.
	SelfPID int32
	Logger  *zap.Logger
	Metrics domain.Metrics
}

func NewScanner(opts ScannerOptions) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	processes := opts.Processes
	sockets := opts.Sockets
	if processes == nil || sockets == nil {
		table := NewSystemTable()
		if processes == nil {
			processes = table
		}
		if sockets == nil {
			sockets = table
		}
	}
	selfPID := opts.SelfPID
	if selfPID == 0 {
		selfPID = int32(os.Getpid())
	}
	return &Scanner{
		processes: processes,
		sockets:   sockets,
		keywords:  normalizeKeywords(opts.Keywords),
		selfPID:   selfPID,
		logger:    logger.Named("procscan"),
		metrics:   metrics,
	}
}

// Scan returns candidates in process table order. Processes that vanish or
// deny access mid-scan are skipped. A matching process whose sockets cannot be
// read is still reported, with no listening ports. Only a failure to read the
// process table itself is returned.
func (s *Scanner) Scan(ctx context.Context) ([]domain.CandidateServer, error) {
	candidates := []domain.CandidateServer{}

	entries, err := s.processes.ListProcesses(ctx)
	if err != nil {
		return candidates, domain.Wrap(domain.CodeProcessAccess, opScan, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return candidates, err
		}
		if !entry.OK() {
			s.observeAccessError(entry.Value.PID, entry.Err, "skipping process")
			continue
		}

		info := entry.Value
		if info.PID == s.selfPID || len(info.Cmdline) == 0 {
			continue
		}
		if !s.matches(info.Cmdline) {
			continue
		}

		ports, err := s.sockets.ListeningPorts(ctx, info.PID)
		if err != nil {
			s.observeAccessError(info.PID, err, "listening sockets unavailable")
			ports = []int{}
		}

		candidates = append(candidates, domain.CandidateServer{
			PID:            info.PID,
			Source:         domain.SourceProcess,
			ProcessName:    info.Name,
			Command:        info.Cmdline[0],
			Args:           append([]string{}, info.Cmdline[1:]...),
			ListeningPorts: ports,
		})
		s.logger.Debug("candidate mcp process",
			telemetry.PIDField(info.PID),
			zap.String("process_name", info.Name),
			zap.Ints("ports", ports),
		)
	}

	s.metrics.ObserveRecords(domain.SourceProcess, len(candidates))
	return candidates, nil
}

func (s *Scanner) matches(cmdline []string) bool {
	joined := strings.ToLower(strings.Join(cmdline, " "))
	for _, keyword := range s.keywords {
		if strings.Contains(joined, keyword) {
			return true
		}
	}
	return false
}

func (s *Scanner) observeAccessError(pid int32, err error, msg string) {
	code, ok := domain.CodeFrom(err)
	if !ok {
		code = domain.CodeProcessAccess
	}
	s.metrics.ObserveSkipped(code)
	s.logger.Debug(msg, telemetry.PIDField(pid), zap.Error(err))
}

func normalizeKeywords(keywords []string) []string {
	if len(keywords) == 0 {
		keywords = domain.DefaultProcessKeywords
	}
	out := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		out = append(out, keyword)
	}
	return out
}

var _ domain.ProcessScanner = (*Scanner)(nil)
