package export

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

var documentTemplate = template.Must(template.New("proposal.html").Funcs(template.FuncMap{
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
}).ParseFS(templateFS, "templates/proposal.html"))

type templateData struct {
	Title     string
	Agency    string
	Amount    string
	Body      template.HTML
	UpdatedAt time.Time
}

// HTML возвращает полную страницу документа заявки.
func HTML(p *entity.Proposal) (string, error) {
	body, err := MarkdownToHTML(Markdown(p))
	if err != nil {
		return "", err
	}

	data := templateData{
		Title:     title(p),
		Agency:    p.FundingAgency,
		Body:      template.HTML(body),
		UpdatedAt: p.UpdatedAt,
	}
	if p.FundingAmount.IsPositive() {
		data.Amount = p.FundingAmount.Display()
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
