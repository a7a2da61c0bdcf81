package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/queue"
)

// ScanJobType is the queue message type for on-demand sweeps.
const ScanJobType = "scan_request"

// ScanRequest is the payload of an on-demand sweep job.
type ScanRequest struct {
	ID          string   `json:"id,omitempty"`
	RequestedBy string   `json:"requested_by,omitempty"`
	Symbols     []string `json:"symbols,omitempty"`
}

// ScanJob runs queued on-demand sweeps. Queued sweeps bypass the market
// clock so an operator can force a scan off-hours.
type ScanJob struct {
	scanner *Scanner
	log     *applogger.Logger
}

var _ queue.Job = (*ScanJob)(nil)

// NewScanJob creates the job handler.
func NewScanJob(scanner *Scanner, log *applogger.Logger) *ScanJob {
	return &ScanJob{scanner: scanner, log: log}
}

func (j *ScanJob) Name() string { return "scan-job" }

func (j *ScanJob) Type() string { return ScanJobType }

func (j *ScanJob) Handle(ctx context.Context, payload json.RawMessage) error {
	req, err := queue.DecodePayload[ScanRequest](payload)
	if err != nil {
		return fmt.Errorf("decode scan request: %w", err)
	}

	j.log.Info("on-demand sweep",
		applogger.String("job_id", req.ID),
		applogger.String("requested_by", req.RequestedBy),
		applogger.Int("symbols", len(req.Symbols)),
	)

	sum := j.scanner.Sweep(ctx, req.Symbols)
	if len(sum.Symbols) > 0 && len(sum.Errors) == len(sum.Symbols) {
		return fmt.Errorf("sweep failed for all %d symbols", len(sum.Symbols))
	}
	return nil
}
