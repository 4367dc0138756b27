package engine

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"smabot/internal/strategy"
)

// Decision is one iteration's outcome, appended as a ndjson line. It is
// observability output; nothing reads it back.
type Decision struct {
	RunID     string          `json:"run_id"`
	Timestamp time.Time       `json:"timestamp"`
	BarTime   time.Time       `json:"bar_time,omitempty"`
	Symbol    string          `json:"symbol"`
	Close     float64         `json:"close,omitempty"`
	ShortSMA  float64         `json:"short_sma,omitempty"`
	LongSMA   float64         `json:"long_sma,omitempty"`
	Action    strategy.Action `json:"action"`
	Qty       int             `json:"qty,omitempty"`
	Result    string          `json:"result"`
	OrderID   string          `json:"order_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type DecisionLogger struct {
	runID  string
	file   *os.File
	writer *bufio.Writer
	log    *zap.Logger
	mu     sync.Mutex
}

func NewDecisionLogger(path, runID string, log *zap.Logger) (*DecisionLogger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &DecisionLogger{
		runID:  runID,
		file:   file,
		writer: bufio.NewWriter(file),
		log:    log,
	}, nil
}

func (d *DecisionLogger) RunID() string {
	return d.runID
}

func (d *DecisionLogger) Append(decision Decision) {
	d.mu.Lock()
	defer d.mu.Unlock()
	payload, err := json.Marshal(decision)
	if err != nil {
		d.log.Warn("failed to marshal decision", zap.Error(err))
		return
	}
	if _, err := d.writer.Write(append(payload, '\n')); err != nil {
		d.log.Warn("failed to write decision", zap.Error(err))
		return
	}
	if err := d.writer.Flush(); err != nil {
		d.log.Warn("failed to flush decision log", zap.Error(err))
	}
}

func (d *DecisionLogger) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writer.Flush(); err != nil {
		_ = d.file.Close()
		return err
	}
	return d.file.Close()
}
