package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ventanaops/ventana/internal/domain"
	"github.com/ventanaops/ventana/internal/logger"
	"github.com/ventanaops/ventana/internal/repository"
)

var (
	// ErrUnparseableDate means an extracted window bound matched none of the
	// date formats carriers use.
	ErrUnparseableDate = errors.New("could not parse maintenance window date")

	// ErrInvalidWindow means the window ends before it starts.
	ErrInvalidWindow = errors.New("maintenance window ends before it starts")
)

// ProcessInput is one carrier email to run through the pipeline. CarrierName
// and ClientName are optional; when absent the carrier is sniffed from the
// message headers.
type ProcessInput struct {
	RawText        string
	ClientName     string
	CarrierName    string
	GenerateNotice bool
}

// ProcessResult reports what the pipeline did with one email.
type ProcessResult struct {
	Task       *domain.ScheduledTask
	Created    bool
	Matched    []*domain.Service
	Pending    []string
	Discarded  []string
	NoticeText string
	NoticePath string
}

// Pipeline turns raw carrier emails into scheduled tasks: clean the body,
// extract the maintenance window, resolve the affected services against the
// catalog and upsert the task with its links.
type Pipeline struct {
	tasks     *repository.TaskRepository
	services  *repository.ServiceRepository
	catalog   *repository.CatalogRepository
	extractor *Extractor
	resolver  *Resolver
	notices   *NoticeService
}

func NewPipeline(
	tasks *repository.TaskRepository,
	services *repository.ServiceRepository,
	catalog *repository.CatalogRepository,
	extractor *Extractor,
	notices *NoticeService,
) *Pipeline {
	return &Pipeline{
		tasks:     tasks,
		services:  services,
		catalog:   catalog,
		extractor: extractor,
		resolver:  NewResolver(services),
		notices:   notices,
	}
}

// ProcessEmail runs one email end to end. A task is persisted even when no
// identifier resolves; the unresolved ones are kept as pending rows so the
// window is never silently lost.
func (p *Pipeline) ProcessEmail(ctx context.Context, in ProcessInput) (*ProcessResult, error) {
	sniffed := SniffHeaders(in.RawText)
	body := CleanEmailBody(in.RawText)

	win, err := p.extractor.Extract(ctx, body)
	if err != nil {
		return nil, err
	}

	carrierName := strings.TrimSpace(in.CarrierName)
	if carrierName == "" {
		carrierName = sniffed.Carrier
	}
	if carrierName == "" {
		carrierName = CarrierFromBody(body)
	}
	taskType := mergeTaskType(win.TaskType, sniffed.TaskType)
	ids := mergeIdentifiers(win.IDs, sniffed.ServiceIDs)

	startAt, err := ParseWindowTime(win.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q", ErrUnparseableDate, win.Start)
	}
	endAt, err := ParseWindowTime(win.End)
	if err != nil {
		return nil, fmt.Errorf("%w: end %q", ErrUnparseableDate, win.End)
	}
	if !startAt.Before(endAt) {
		return nil, fmt.Errorf("%w: %s .. %s", ErrInvalidWindow, win.Start, win.End)
	}

	if clientName := strings.TrimSpace(in.ClientName); clientName != "" {
		client, err := p.catalog.GetOrCreateClient(ctx, clientName)
		if err != nil {
			return nil, err
		}
		ctx = logger.WithField(ctx, logger.FieldClient, client.Name)
	}

	var carrier *domain.Carrier
	if carrierName != "" {
		carrier, err = p.catalog.GetOrCreateCarrier(ctx, carrierName)
		if err != nil {
			return nil, err
		}
		ctx = logger.SetCarrier(ctx, carrier.Name)
	}

	resolution, err := p.resolver.Resolve(ctx, carrierName, ids)
	if err != nil {
		return nil, err
	}

	params := repository.UpsertParams{
		StartAt:     startAt,
		EndAt:       endAt,
		TaskType:    taskType,
		Affectation: win.Affectation,
		Description: win.Description,
	}
	if carrier != nil {
		params.CarrierID = &carrier.ID
	}
	if sniffed.InternalID != "" {
		internalID := sniffed.InternalID
		params.InternalID = &internalID
	}

	task, created, err := p.tasks.Upsert(ctx, params)
	if err != nil {
		return nil, err
	}
	ctx = logger.SetTaskID(ctx, task.ID)

	serviceIDs := make([]uint, 0, len(resolution.Matched))
	for _, svc := range resolution.Matched {
		serviceIDs = append(serviceIDs, svc.ID)
	}
	if err := p.tasks.ReplaceLinks(ctx, task.ID, serviceIDs); err != nil {
		return nil, err
	}
	for _, code := range resolution.Pending {
		if err := p.tasks.AddPending(ctx, task.ID, code); err != nil {
			return nil, err
		}
	}
	if carrier != nil {
		if err := p.services.AssignCarrier(ctx, serviceIDs, carrier); err != nil {
			return nil, err
		}
	}

	logger.With(logger.Fields{
		"created": created,
		"matched": len(resolution.Matched),
		"pending": len(resolution.Pending),
	}).Info(ctx, "email processed")

	result := &ProcessResult{
		Task:      task,
		Created:   created,
		Matched:   resolution.Matched,
		Pending:   resolution.Pending,
		Discarded: resolution.Discarded,
	}

	if in.GenerateNotice && p.notices != nil {
		text, path, err := p.notices.Generate(ctx, carrierName, task, resolution.Matched)
		if err != nil {
			// The task is already saved; a notice failure should not undo it.
			logger.CtxError(ctx, "notice generation failed: %v", err)
		} else {
			result.NoticeText = text
			result.NoticePath = path
		}
	}
	return result, nil
}

func mergeTaskType(extracted, sniffed string) string {
	if extracted != "" {
		return extracted
	}
	if sniffed != "" {
		return sniffed
	}
	return domain.TaskTypeScheduled
}

// mergeIdentifiers appends the sniffed identifiers after the extracted ones,
// skipping values the extraction already produced.
func mergeIdentifiers(extracted, sniffed []string) []string {
	merged := make([]string, 0, len(extracted)+len(sniffed))
	seen := make(map[string]bool, len(extracted)+len(sniffed))
	for _, id := range extracted {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range sniffed {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged
}

// windowLayouts are the date formats carriers use, in the order they are
// tried. Layouts without a year get the current year substituted.
var windowLayouts = []struct {
	layout   string
	yearless bool
}{
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"02/01/2006 15:04:05", false},
	{"02/01/2006 15:04", false},
	{"02/01 15:04:05", true},
	{"02/01 15:04", true},
	{time.RFC3339, false},
	{"2006-01-02T15:04:05", false},
}

// ParseWindowTime parses one window bound in any of the accepted formats.
func ParseWindowTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range windowLayouts {
		t, err := time.ParseInLocation(l.layout, s, time.Local)
		if err != nil {
			continue
		}
		if l.yearless {
			now := time.Now()
			t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
