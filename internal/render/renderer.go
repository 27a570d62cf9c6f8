package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"docgen/internal/model"
)

// ErrRenderFailure marks any failure raised while encoding a document.
var ErrRenderFailure = errors.New("render failure")

// TimestampLayout is the format of the generation timestamp printed in documents.
const TimestampLayout = "2006-01-02 15:04:05"

// Renderer turns a field map into the bytes of a document.
type Renderer interface {
	// Render produces the complete document for the template in the given format.
	Render(ctx context.Context, tmpl model.TemplateType, format model.DocumentType, fields model.Fields) ([]byte, error)
	// Supports reports whether a variant exists for the pair.
	Supports(tmpl model.TemplateType, format model.DocumentType) bool
}

type renderFunc func(e *Engine, fields model.Fields) ([]byte, error)

type variant struct {
	format model.DocumentType
	render renderFunc
}

// variants maps each template kind to the only format it can be rendered in.
var variants = map[model.TemplateType]variant{
	model.TemplateInvoice:     {format: model.DocumentTypePDF, render: (*Engine).invoicePDF},
	model.TemplateReport:      {format: model.DocumentTypePDF, render: (*Engine).reportPDF},
	model.TemplateOrderReport: {format: model.DocumentTypeExcel, render: (*Engine).orderReportExcel},
	model.TemplateUserReport:  {format: model.DocumentTypeExcel, render: (*Engine).userReportExcel},
}

// Engine is the template renderer. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	clock Clock
	loc   *time.Location
}

// NewEngine constructs an Engine. A nil clock means the system clock; a nil location means UTC.
func NewEngine(clock Clock, loc *time.Location) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{clock: clock, loc: loc}
}

var _ Renderer = (*Engine)(nil)

func (e *Engine) Supports(tmpl model.TemplateType, format model.DocumentType) bool {
	v, ok := variants[tmpl]
	return ok && v.format == format
}

func (e *Engine) Render(ctx context.Context, tmpl model.TemplateType, format model.DocumentType, fields model.Fields) ([]byte, error) {
	ctx, span := otel.Tracer("docgen/render").Start(ctx, "render.Engine.Render")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.template", string(tmpl)),
		attribute.String("document.format", string(format)),
	)

	v, ok := variants[tmpl]
	if !ok || v.format != format {
		err := fmt.Errorf("%w: no %s variant for template %s", ErrRenderFailure, format, tmpl)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = model.Fields{}
	}

	out, err := v.render(e, fields)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRenderFailure, tmpl, format, err)
	}
	// The caller may have gone away while we were encoding.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("document.size", len(out)))
	return out, nil
}

func (e *Engine) now() time.Time {
	return e.clock.Now().In(e.loc)
}

func (e *Engine) timestamp() string {
	return e.now().Format(TimestampLayout)
}
