// Package export собирает документ заявки в Markdown, HTML или PDF.
package export

import "errors"

type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

// ParseFormat принимает пустую строку как pdf.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatPDF, nil
	case FormatMarkdown, FormatHTML, FormatPDF:
		return Format(s), nil
	}
	return "", ErrUnsupportedFormat
}

type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	ErrUnsupportedFormat    = errors.New("export format not supported")
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
