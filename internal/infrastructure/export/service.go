package export

import (
	"context"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
)

type Service struct {
	pdf PDFRenderer
}

func NewService(pdf PDFRenderer) *Service {
	return &Service{pdf: pdf}
}

// Export собирает документ в нужном формате.
func (s *Service) Export(ctx context.Context, p *entity.Proposal, format Format) (*Result, error) {
	name := sanitizeFilename(title(p))

	switch format {
	case FormatMarkdown:
		return &Result{
			Data:     []byte(Markdown(p)),
			Filename: name + ".md",
			MimeType: "text/markdown; charset=utf-8",
		}, nil
	case FormatHTML, FormatPDF:
	default:
		return nil, ErrUnsupportedFormat
	}

	page, err := HTML(p)
	if err != nil {
		return nil, err
	}
	if format == FormatHTML {
		return &Result{Data: []byte(page), Filename: name + ".html", MimeType: "text/html; charset=utf-8"}, nil
	}

	if s.pdf == nil {
		return nil, ErrPDFDependencyMissing
	}
	data, err := s.pdf.RenderPDF(ctx, page)
	if err != nil {
		return nil, err
	}
	return &Result{Data: data, Filename: name + ".pdf", MimeType: "application/pdf"}, nil
}
