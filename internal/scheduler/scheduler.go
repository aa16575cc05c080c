package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"RentScope/internal/analysis"
	"RentScope/internal/calculator"
	"RentScope/internal/collector"
	"RentScope/internal/model"
	"RentScope/internal/notifier"
	"RentScope/internal/recorder"
	"RentScope/internal/store"

	"github.com/robfig/cron/v3"
)

// Sender delivers chat notifications. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the dataset refresh job and chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Store     *store.Manager
	Notifier  Sender // nil disables notifications
	Recorder  recorder.Recorder
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, sm *store.Manager, tn Sender, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Store:     sm,
		Notifier:  tn,
		Recorder:  rec,
		Ctx:       ctx,
	}
}

// RegisterRefresh registers the periodic dataset reload.
func (s *Scheduler) RegisterRefresh(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunRefreshNow loads the dataset immediately and reports whether it succeeded.
func (s *Scheduler) RunRefreshNow() error {
	return s.refresh()
}

func (s *Scheduler) refreshTask() {
	_ = s.refresh()
}

func (s *Scheduler) refresh() error {
	log.Println("[INFO] refreshing rent dataset")
	start := time.Now()

	ds, err := s.Collector.Collect(s.Ctx)
	took := time.Since(start)
	if err != nil {
		log.Printf("[ERROR] dataset refresh: %v", err)
		s.Store.RecordFailure(err)
		s.recordRefresh(&recorder.RefreshEvent{
			Source:   s.Collector.Loader.Name(),
			Duration: took,
			Error:    err.Error(),
		})
		s.trySend(fmt.Sprintf("❌ Rent data refresh failed: %v", err))
		return err
	}

	s.Store.Replace(ds)
	s.recordRefresh(&recorder.RefreshEvent{
		Version:  ds.Version,
		Source:   ds.Source,
		Rows:     len(ds.Records),
		Dropped:  ds.Dropped,
		Duration: took,
	})

	areas := calculator.DistinctValues(ds.Records, model.FieldGeneralArea)
	hoods := calculator.DistinctValues(ds.Records, model.FieldNeighbourhood)
	s.trySend(notifier.FormatRefreshSummary(ds.Info(), len(areas), len(hoods), took))
	return nil
}

const helpText = "Available commands:\n" +
	"• /status\n" +
	"• /areas\n" +
	"• /neighbourhoods\n" +
	"• /stats <area or neighbourhood>\n" +
	"• /refresh"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	name, arg, _ := strings.Cut(strings.TrimSpace(command), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/status":
		return notifier.FormatDatasetStatus(s.Store.GetState())
	case "/areas":
		return s.listField(model.FieldGeneralArea, "General areas")
	case "/neighbourhoods", "/neighborhoods":
		return s.listField(model.FieldNeighbourhood, "Neighbourhoods")
	case "/stats":
		if arg == "" {
			return "Usage: /stats <area or neighbourhood>"
		}
		return s.areaStats(arg)
	case "/refresh":
		// the refresh sends its own summary
		_ = s.refresh()
		return ""
	default:
		return helpText
	}
}

func (s *Scheduler) listField(field model.AreaField, title string) string {
	ds, err := s.Store.Current()
	if err != nil {
		return "No dataset loaded yet."
	}
	values := calculator.DistinctValues(ds.Records, field)
	if len(values) == 0 {
		return title + ": none"
	}
	return fmt.Sprintf("<b>%s</b> (%d)\n%s", title, len(values), strings.Join(values, "\n"))
}

// areaStats matches the name against general areas first, then neighbourhoods.
func (s *Scheduler) areaStats(area string) string {
	ds, err := s.Store.Current()
	if err != nil {
		return "No dataset loaded yet."
	}
	for _, field := range []model.AreaField{model.FieldGeneralArea, model.FieldNeighbourhood} {
		groups, err := analysis.GroupedStats(ds.Records, field, area, false)
		if err != nil {
			return err.Error()
		}
		if len(groups) > 0 {
			return notifier.FormatGroupedStats(area, groups)
		}
	}
	return fmt.Sprintf("%s: %s", area, "No data available.")
}

func (s *Scheduler) recordRefresh(evt *recorder.RefreshEvent) {
	if err := s.Recorder.RecordRefresh(evt); err != nil {
		log.Printf("[ERROR] record refresh: %v", err)
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
