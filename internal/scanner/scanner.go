// Package scanner drives the scheduled OTA anomaly scan: aggregate, join,
// report, notify. At most one run is ever in flight.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xxxhand/scan-ota-status/internal/core"
	"github.com/xxxhand/scan-ota-status/internal/mail"
	"github.com/xxxhand/scan-ota-status/internal/metrics"
	"github.com/xxxhand/scan-ota-status/internal/report"
)

// DataSource is the read-only view of the device store a run owns while in
// flight.
type DataSource interface {
	Connect(ctx context.Context) error
	AbnormalGroups(ctx context.Context, since time.Time, minCount int) ([]core.GroupedAnomaly, error)
	DevicesBySerial(ctx context.Context, sns []string) ([]core.DeviceRecord, error)
	AccountsByID(ctx context.Context, ids []string) ([]core.AccountRecord, error)
	Close(ctx context.Context) error
}

// MailChannel dispatches the report. Verify and Send open and release
// their own relay connections.
type MailChannel interface {
	Verify(ctx context.Context) error
	Send(ctx context.Context, msg *mail.Message) error
}

// Config holds the run parameters.
type Config struct {
	Window         time.Duration
	CountThreshold int
	ReportDir      string
	MailFrom       string
	MailSender     string
	Receivers      []string
}

// Scanner is the job orchestrator.
type Scanner struct {
	cfg    Config
	source DataSource
	mailer MailChannel
	log    *slog.Logger

	// running is the re-entrancy guard. Go schedules trigger goroutines
	// preemptively, so entry must be an atomic compare-and-swap rather
	// than a plain flag.
	running atomic.Bool
}

// New builds a Scanner, filling unset config fields with the operational
// defaults.
func New(cfg Config, source DataSource, mailer MailChannel, log *slog.Logger) *Scanner {
	if cfg.Window <= 0 {
		cfg.Window = core.DefaultScanWindow
	}
	if cfg.CountThreshold <= 0 {
		cfg.CountThreshold = core.DefaultCountThreshold
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = "."
	}
	return &Scanner{cfg: cfg, source: source, mailer: mailer, log: log}
}

// Execute runs the full pipeline once. An overlapping trigger is logged
// and ignored. Errors never propagate to the scheduler, and every session
// the run opened is released before Execute returns, on every exit path.
func (s *Scanner) Execute(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Info("last scan still running, skipping trigger")
		metrics.OverlapSkips.Inc()
		return
	}

	log := s.log.With("run_id", uuid.NewString())
	start := time.Now()
	metrics.RunsStarted.Inc()
	metrics.LastRunUnix.SetToCurrentTime()
	connected := false

	defer func() {
		if connected {
			if err := s.source.Close(ctx); err != nil {
				log.Error("close data source", "error", err)
			}
		}
		s.running.Store(false)
		log.Info("scan finished", "duration_ms", time.Since(start).Milliseconds())
	}()

	log.Info("start to find abnormal devices")
	if err := s.source.Connect(ctx); err != nil {
		log.Error("connect data source", "error", err)
		metrics.StageFailures.WithLabelValues("connect").Inc()
		return
	}
	connected = true

	since := start.Add(-s.cfg.Window)
	groups, err := s.source.AbnormalGroups(ctx, since, s.cfg.CountThreshold)
	if err != nil {
		log.Error("aggregate abnormal devices", "error", err)
		metrics.StageFailures.WithLabelValues("aggregate").Inc()
		return
	}
	if len(groups) == 0 {
		log.Info("no devices matched, terminating run")
		return
	}
	log.Info("abnormal devices found", "groups", len(groups))

	sns := make([]string, len(groups))
	for i, g := range groups {
		sns[i] = g.SN
	}
	devices, err := s.source.DevicesBySerial(ctx, sns)
	if err != nil {
		log.Error("look up devices", "error", err)
		metrics.StageFailures.WithLabelValues("devices").Inc()
		return
	}

	ids := make([]string, 0, len(devices))
	for _, d := range devices {
		if d.AccountID != "" {
			ids = append(ids, d.AccountID)
		}
	}
	accounts, err := s.source.AccountsByID(ctx, ids)
	if err != nil {
		log.Error("look up accounts", "error", err)
		metrics.StageFailures.WithLabelValues("accounts").Inc()
		return
	}

	rows := core.ComposeWarningRows(log, groups, devices, accounts)
	metrics.WarningRows.Add(float64(len(rows)))

	// A report or delivery failure ends the run but never escapes it; the
	// deferred cleanup still executes.
	if err := s.sendReport(ctx, log, len(groups), rows); err != nil {
		log.Error("send report", "error", err)
		return
	}
	metrics.ReportsSent.Inc()
}

// sendReport stages the CSV artifact and mails it. The report is sent even
// when every group was skipped during the join: the subject counts groups,
// and a header-only attachment is still actionable for triage.
func (s *Scanner) sendReport(ctx context.Context, log *slog.Logger, groupCount int, rows []core.WarningRow) error {
	artifact, err := report.Write(s.cfg.ReportDir, rows)
	if err != nil {
		metrics.StageFailures.WithLabelValues("artifact").Inc()
		return err
	}
	log.Info("report staged", "file", artifact.FileName, "rows", len(rows))

	if err := s.mailer.Verify(ctx); err != nil {
		metrics.StageFailures.WithLabelValues("verify").Inc()
		return err
	}

	msg := &mail.Message{
		From:    s.cfg.MailFrom,
		Sender:  s.cfg.MailSender,
		To:      s.cfg.Receivers,
		Subject: fmt.Sprintf("%d devices OTA status abnormal", groupCount),
		Text: fmt.Sprintf("%d devices reported an abnormal OTA status within the last %s. Details attached.",
			groupCount, s.cfg.Window),
		Attachments: []mail.Attachment{
			{FileName: artifact.FileName, Content: artifact.Content},
		},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.StageFailures.WithLabelValues("send").Inc()
		return err
	}
	log.Info("report sent", "receivers", len(msg.To))
	return nil
}
