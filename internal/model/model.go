package model

import "strings"

// Package model contains domain models/data structures shared across layers.

// DocumentType is the output encoding of a generated document.
type DocumentType string

const (
	DocumentTypePDF   DocumentType = "PDF"
	DocumentTypeExcel DocumentType = "EXCEL"
)

// TemplateType selects which rendering variant runs.
type TemplateType string

const (
	TemplateInvoice     TemplateType = "INVOICE"
	TemplateReport      TemplateType = "REPORT"
	TemplateOrderReport TemplateType = "ORDER_REPORT"
	TemplateUserReport  TemplateType = "USER_REPORT"
)

var documentTypes = map[string]DocumentType{
	string(DocumentTypePDF):   DocumentTypePDF,
	string(DocumentTypeExcel): DocumentTypeExcel,
}

var templateTypes = map[string]TemplateType{
	string(TemplateInvoice):     TemplateInvoice,
	string(TemplateReport):      TemplateReport,
	string(TemplateOrderReport): TemplateOrderReport,
	string(TemplateUserReport):  TemplateUserReport,
}

// ParseDocumentType resolves a document type name case-insensitively.
func ParseDocumentType(s string) (DocumentType, bool) {
	dt, ok := documentTypes[strings.ToUpper(strings.TrimSpace(s))]
	return dt, ok
}

// ParseTemplateType resolves a template name case-insensitively.
func ParseTemplateType(s string) (TemplateType, bool) {
	tt, ok := templateTypes[strings.ToUpper(strings.TrimSpace(s))]
	return tt, ok
}

// Extension returns the file extension (without dot) used for the document type.
func (d DocumentType) Extension() string {
	switch d {
	case DocumentTypePDF:
		return "pdf"
	case DocumentTypeExcel:
		return "xlsx"
	default:
		return "bin"
	}
}

// ContentType returns the MIME type served for the document type.
func (d DocumentType) ContentType() string {
	switch d {
	case DocumentTypePDF:
		return "application/pdf"
	case DocumentTypeExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
