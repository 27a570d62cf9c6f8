package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"docgen/internal/logger"
	"docgen/internal/model"
	"docgen/internal/render"
	"docgen/internal/repository"
	"docgen/internal/storage"
)

var tracer = otel.Tracer("docgen/service")

// DocumentListResult is the service-level DTO for document record listings.
type DocumentListResult struct {
	Items []model.DocumentRecord `json:"data"`
	Total int                    `json:"total"`
}

// DocumentService defines the document generation use cases.
type DocumentService interface {
	// Generate renders the template in the requested format, records the
	// generation event and returns the document bytes.
	// templateType and documentType are matched case-insensitively.
	Generate(ctx context.Context, templateType, documentType string, fields model.Fields, generatedBy string) ([]byte, error)

	// List returns records matching filter, newest first. A limit of zero or less returns every record.
	List(ctx context.Context, filter repository.ListFilter, limit, offset int) (*DocumentListResult, error)

	// Get returns a single record by its ID.
	Get(ctx context.Context, id string) (*model.DocumentRecord, error)

	// Download returns the record and a reader over its archived bytes.
	// The caller closes the reader.
	Download(ctx context.Context, id string) (*model.DocumentRecord, io.ReadCloser, error)

	// Link returns a time-limited URL to the archived bytes.
	Link(ctx context.Context, id string, expiry time.Duration) (string, error)

	// Delete removes the archived object, then the record.
	Delete(ctx context.Context, id string) error
}

// Option customizes a DocumentService.
type Option func(*documentService)

// WithClock sets the clock used for record names and creation times.
func WithClock(c render.Clock) Option {
	return func(s *documentService) { s.clock = c }
}

// WithRecordRequired makes Generate fail when the record cannot be saved.
func WithRecordRequired(required bool) Option {
	return func(s *documentService) { s.recordRequired = required }
}

// WithMetrics reports generation outcomes to m.
func WithMetrics(m *GenerationMetrics) Option {
	return func(s *documentService) { s.metrics = m }
}

type documentService struct {
	renderer       render.Renderer
	repo           repository.DocumentRepository
	store          storage.Storage
	clock          render.Clock
	recordRequired bool
	metrics        *GenerationMetrics
}

// NewDocumentService constructs a DocumentService. store may be nil, which disables archiving.
func NewDocumentService(renderer render.Renderer, repo repository.DocumentRepository, store storage.Storage, opts ...Option) DocumentService {
	s := &documentService{
		renderer: renderer,
		repo:     repo,
		store:    store,
		clock:    render.SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *documentService) Generate(ctx context.Context, templateType, documentType string, fields model.Fields, generatedBy string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "service.Generate")
	defer span.End()

	format, ok := model.ParseDocumentType(documentType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, documentType)
	}
	tmpl, ok := model.ParseTemplateType(templateType)
	if !ok || !s.renderer.Supports(tmpl, format) {
		return nil, fmt.Errorf("%w: %q as %s", ErrUnsupportedTemplate, templateType, format)
	}
	span.SetAttributes(
		attribute.String("document.template", string(tmpl)),
		attribute.String("document.format", string(format)),
	)
	if fields == nil {
		fields = model.Fields{}
	}
	log := logger.FromContext(ctx).With(
		zap.String("template", string(tmpl)),
		zap.String("format", string(format)),
	)

	start := time.Now()
	out, err := s.renderer.Render(ctx, tmpl, format, fields)
	s.metrics.observeRender(tmpl, time.Since(start))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.metrics.observe(tmpl, format, OutcomeCancelled)
			log.Info("generation cancelled", zap.Error(ctxErr))
			return nil, ctxErr
		}
		s.metrics.observe(tmpl, format, OutcomeRenderFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		log.Error("render failed", zap.Error(err))
		return nil, err
	}

	now := s.clock.Now()
	rec := &model.DocumentRecord{
		ID:           uuid.NewString(),
		DocumentName: fmt.Sprintf("%s_%d", tmpl, now.UnixMilli()),
		DocumentType: format,
		TemplateType: tmpl,
		GeneratedBy:  generatedBy,
		Metadata:     fields,
		CreatedAt:    now.UTC(),
	}
	span.SetAttributes(attribute.String("document.id", rec.ID))
	rec.StoragePath = s.archive(ctx, log, rec, out)

	if _, err := s.repo.Create(ctx, rec); err != nil {
		log.Error("save document record failed",
			zap.String("document_id", rec.ID),
			zap.Bool("record_required", s.recordRequired),
			zap.Error(err),
		)
		if s.recordRequired {
			s.unarchive(ctx, log, rec.StoragePath)
			s.metrics.observe(tmpl, format, OutcomePersistenceFailed)
			span.SetStatus(codes.Error, "persistence failed")
			return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
		}
		s.metrics.observe(tmpl, format, OutcomeUnrecorded)
		return out, nil
	}

	s.metrics.observe(tmpl, format, OutcomeOK)
	log.Info("document generated",
		zap.String("document_id", rec.ID),
		zap.String("generated_by", generatedBy),
		zap.Int("size", len(out)),
	)
	return out, nil
}

// archive stores a copy of out and returns its key, or "" when archiving is
// disabled or failed.
func (s *documentService) archive(ctx context.Context, log *zap.Logger, rec *model.DocumentRecord, out []byte) string {
	if s.store == nil {
		return ""
	}
	key := storage.ArchiveKey(strings.ToLower(string(rec.TemplateType)), rec.ID, rec.DocumentType.Extension())
	info, err := s.store.Put(ctx, key, bytes.NewReader(out), storage.PutObjectOptions{
		Size:        int64(len(out)),
		ContentType: rec.DocumentType.ContentType(),
		Metadata: map[string]string{
			"document-name": rec.DocumentName,
			"generated-by":  rec.GeneratedBy,
		},
	})
	if err != nil {
		log.Warn("archive document failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return info.Key
}

func (s *documentService) unarchive(ctx context.Context, log *zap.Logger, key string) {
	if s.store == nil || key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		log.Warn("remove archived document failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *documentService) List(ctx context.Context, filter repository.ListFilter, limit, offset int) (*DocumentListResult, error) {
	if offset < 0 {
		offset = 0
	}
	res, err := s.repo.List(ctx, filter, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	items := res.Items
	if items == nil {
		items = []model.DocumentRecord{}
	}
	return &DocumentListResult{Items: items, Total: res.Total}, nil
}

func (s *documentService) Get(ctx context.Context, id string) (*model.DocumentRecord, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *documentService) Download(ctx context.Context, id string) (*model.DocumentRecord, io.ReadCloser, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.store == nil || rec.StoragePath == "" {
		return nil, nil, ErrNotArchived
	}
	rc, _, err := s.store.Get(ctx, rec.StoragePath)
	if err != nil {
		logger.FromContext(ctx).Warn("read archived document failed",
			zap.String("document_id", rec.ID),
			zap.String("key", rec.StoragePath),
			zap.Error(err),
		)
		return nil, nil, fmt.Errorf("%w: %w", ErrNotArchived, err)
	}
	return rec, rc, nil
}

func (s *documentService) Link(ctx context.Context, id string, expiry time.Duration) (string, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if s.store == nil || rec.StoragePath == "" {
		return "", ErrNotArchived
	}
	return s.store.PresignGet(ctx, rec.StoragePath, expiry)
}

// Delete removes the archived object first so a failure keeps the record
// pointing at it.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if s.store != nil && rec.StoragePath != "" {
		if err := s.store.Delete(ctx, rec.StoragePath); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
