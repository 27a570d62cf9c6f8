package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docgen/internal/http/middleware"
	"docgen/internal/model"
	"docgen/internal/render"
	"docgen/internal/repository"
	"docgen/internal/service"
)

// linkExpiry is how long a presigned download URL stays valid.
const linkExpiry = 15 * time.Minute

var validate = validator.New()

// Deps are the collaborators the HTTP routes need.
type Deps struct {
	DB       *sql.DB
	Service  service.DocumentService
	Auth     *middleware.Authenticator
	Clock    render.Clock
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	if d.Clock == nil {
		d.Clock = render.SystemClock{}
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	anyUser := middleware.RequireScope(middleware.ScopeUser, middleware.ScopeAdmin)
	docs := app.Group("/documents", d.Auth.Handler())

	docs.Get("/", anyUser, ListDocuments(d.Service))
	docs.Post("/generate", anyUser, GenerateFromQuery(d.Service, d.Clock))
	docs.Post("/generate/pdf/invoice", anyUser, GenerateDocument(d.Service, d.Clock, model.TemplateInvoice, model.DocumentTypePDF, "invoice"))
	docs.Post("/generate/pdf/report", anyUser, GenerateDocument(d.Service, d.Clock, model.TemplateReport, model.DocumentTypePDF, "report"))
	docs.Post("/generate/excel/orders", anyUser, GenerateDocument(d.Service, d.Clock, model.TemplateOrderReport, model.DocumentTypeExcel, "order_report"))
	docs.Post("/generate/excel/users", anyUser, GenerateDocument(d.Service, d.Clock, model.TemplateUserReport, model.DocumentTypeExcel, "user_report"))
	docs.Get("/:id", anyUser, GetDocument(d.Service))
	docs.Get("/:id/download", anyUser, DownloadDocument(d.Service))
	docs.Get("/:id/link", anyUser, LinkDocument(d.Service))
	docs.Delete("/:id", middleware.RequireScope(middleware.ScopeAdmin), DeleteDocument(d.Service))
}

// HealthCheck checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

type listQuery struct {
	Limit        int `validate:"gte=0,lte=1000"`
	Offset       int `validate:"gte=0"`
	DocumentType string
	TemplateType string
	GeneratedBy  string `validate:"max=255"`
}

// ListDocuments godoc
// @Summary List document records
// @Tags documents
// @Produce json
// @Param limit query int false "page size, 0 lists everything"
// @Param offset query int false "records to skip"
// @Param documentType query string false "PDF or EXCEL"
// @Param templateType query string false "INVOICE, REPORT, ORDER_REPORT or USER_REPORT"
// @Param generatedBy query string false "principal id"
// @Success 200 {object} service.DocumentListResult
// @Security BearerAuth
// @Router /documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		q := listQuery{
			Limit:        limit,
			Offset:       offset,
			DocumentType: c.Query("documentType"),
			TemplateType: c.Query("templateType"),
			GeneratedBy:  c.Query("generatedBy"),
		}
		if err := validate.Struct(q); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_QUERY", "invalid query parameters")
		}

		filter := repository.ListFilter{GeneratedBy: q.GeneratedBy}
		if q.DocumentType != "" {
			dt, ok := model.ParseDocumentType(q.DocumentType)
			if !ok {
				return writeError(c, fiber.StatusBadRequest, "INVALID_QUERY", "unknown documentType")
			}
			filter.DocumentType = dt
		}
		if q.TemplateType != "" {
			tt, ok := model.ParseTemplateType(q.TemplateType)
			if !ok {
				return writeError(c, fiber.StatusBadRequest, "INVALID_QUERY", "unknown templateType")
			}
			filter.TemplateType = tt
		}

		res, err := svc.List(c.UserContext(), filter, q.Limit, q.Offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetDocument godoc
// @Summary Get a document record
// @Tags documents
// @Produce json
// @Param id path string true "record id"
// @Success 200 {object} model.DocumentRecord
// @Security BearerAuth
// @Router /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rec, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

// DownloadDocument godoc
// @Summary Download the archived bytes of a generated document
// @Tags documents
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "record id"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /documents/{id}/download [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rec, rc, err := svc.Download(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Attachment(strings.ToLower(rec.DocumentName) + "." + rec.DocumentType.Extension())
		c.Set(fiber.HeaderContentType, rec.DocumentType.ContentType())
		// fasthttp closes rc once the body has been written.
		return c.SendStream(rc)
	}
}

// LinkDocument returns a presigned URL for the archived bytes.
func LinkDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.Link(c.UserContext(), id, linkExpiry)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{
			"url":       u,
			"expiresIn": int(linkExpiry.Seconds()),
		})
	}
}

// GenerateDocument godoc
// @Summary Generate a document from a fixed template
// @Description The body is a flat JSON object of template fields; missing fields fall back to defaults.
// @Tags generate
// @Accept json
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param fields body object false "template fields"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /documents/generate/pdf/invoice [post]
// @Router /documents/generate/pdf/report [post]
// @Router /documents/generate/excel/orders [post]
// @Router /documents/generate/excel/users [post]
func GenerateDocument(svc service.DocumentService, clock render.Clock, tmpl model.TemplateType, format model.DocumentType, filePrefix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return generate(c, svc, clock, string(tmpl), string(format), filePrefix)
	}
}

// GenerateFromQuery godoc
// @Summary Generate a document for any template and format pair
// @Tags generate
// @Accept json
// @Param template query string true "template type"
// @Param format query string true "document type"
// @Param fields body object false "template fields"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /documents/generate [post]
func GenerateFromQuery(svc service.DocumentService, clock render.Clock) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tmpl := c.Query("template")
		return generate(c, svc, clock, tmpl, c.Query("format"), strings.ToLower(strings.TrimSpace(tmpl)))
	}
}

func generate(c *fiber.Ctx, svc service.DocumentService, clock render.Clock, tmpl, format, filePrefix string) error {
	fields, err := decodeFields(c.Body())
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON object")
	}
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	out, err := svc.Generate(c.UserContext(), tmpl, format, fields, p.Subject)
	if err != nil {
		return writeServiceError(c, err)
	}

	dt, _ := model.ParseDocumentType(format)
	c.Attachment(fmt.Sprintf("%s_%d.%s", filePrefix, clock.Now().UnixMilli(), dt.Extension()))
	c.Set(fiber.HeaderContentType, dt.ContentType())
	return c.Send(out)
}

// decodeFields reads a JSON object body. An empty body or null is an empty map.
// Numbers are kept as json.Number so they print as sent.
func decodeFields(body []byte) (model.Fields, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return model.Fields{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var fields model.Fields
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after JSON object")
	}
	if fields == nil {
		fields = model.Fields{}
	}
	return fields, nil
}

// DeleteDocument godoc
// @Summary Delete a document record
// @Tags documents
// @Param id path string true "record id"
// @Success 204
// @Security BearerAuth
// @Router /documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
