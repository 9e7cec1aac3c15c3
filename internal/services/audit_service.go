package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"securevault/internal/alert"
	"securevault/internal/models"
	"securevault/internal/store"
)

// AuditService appends and queries the append-only audit trail. A failed
// append never aborts the operation that triggered it, but every failure is
// logged and pushed to operational monitoring.
type AuditService struct {
	db     store.DB
	audit  AuditStore
	alerts alert.Sink
	logger *zap.Logger
}

func NewAuditService(db store.DB, audit AuditStore, alerts alert.Sink, logger *zap.Logger) *AuditService {
	return &AuditService{db: db, audit: audit, alerts: alerts, logger: logger}
}

// RecordInTx appends inside the caller's transaction so the entry commits
// atomically with the action it describes.
func (s *AuditService) RecordInTx(ctx context.Context, tx store.Execer, input store.AuditEntryInput) {
	s.record(ctx, tx, input)
}

// Record appends outside any transaction, for events with no surrounding
// mutation (failed validations, session replays).
func (s *AuditService) Record(ctx context.Context, input store.AuditEntryInput) {
	s.record(ctx, s.db, input)
}

func (s *AuditService) record(ctx context.Context, tx store.Execer, input store.AuditEntryInput) {
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	if input.Status == "" {
		input.Status = models.AuditSuccess
	}
	if err := s.audit.Insert(ctx, tx, input); err != nil {
		s.logger.Error("audit append failed",
			zap.String("action", input.Action),
			zap.Error(err))
		s.alerts.Broadcast(alert.Alert{
			Kind:   alert.KindAuditWriteFailed,
			Detail: "audit append failed for action " + input.Action,
		})
	}
}

// Query returns one page of entries matching filter, oldest first.
func (s *AuditService) Query(ctx context.Context, filter store.AuditFilter) ([]models.AuditEntry, error) {
	return s.audit.List(ctx, s.db, filter)
}

// Pager walks the audit log page by page without materializing it. It can be
// restarted from the beginning with Reset.
type Pager struct {
	svc      *AuditService
	filter   store.AuditFilter
	pageSize int
	offset   int
	done     bool
}

func (s *AuditService) NewPager(filter store.AuditFilter, pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Pager{svc: s, filter: filter, pageSize: pageSize}
}

// Next returns the next page, or (nil, nil) once the sequence is exhausted.
func (p *Pager) Next(ctx context.Context) ([]models.AuditEntry, error) {
	if p.done {
		return nil, nil
	}
	filter := p.filter
	filter.Limit = p.pageSize
	filter.Offset = p.offset
	page, err := p.svc.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(page) < p.pageSize {
		p.done = true
	}
	p.offset += len(page)
	if len(page) == 0 {
		return nil, nil
	}
	return page, nil
}

func (p *Pager) Reset() {
	p.offset = 0
	p.done = false
}
