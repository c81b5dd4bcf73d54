package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Markdown возвращает сгенерированный документ, а если его нет, собирает черновик из полей.
func Markdown(p *entity.Proposal) string {
	if p.HasDocument() {
		return p.GeneratedProposal
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title(p))
	if p.FundingAgency != "" {
		fmt.Fprintf(&b, "**Funding Agency:** %s\n\n", p.FundingAgency)
	}
	if p.FundingAmount.IsPositive() {
		fmt.Fprintf(&b, "**Funding Amount:** %s\n\n", p.FundingAmount.Display())
	}
	for _, s := range entity.Sections {
		value := strings.TrimSpace(s.Value(&p.ProposalFields))
		if value == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Label, value)
	}
	return b.String()
}

// MarkdownToHTML рендерит Markdown в HTML-фрагмент.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("export: markdown: %w", err)
	}
	return buf.String(), nil
}

func title(p *entity.Proposal) string {
	if t := strings.TrimSpace(p.ProjectTitle); t != "" {
		return t
	}
	return entity.DefaultProjectTitle
}

// sanitizeFilename оставляет латиницу, цифры, дефис и подчёркивание.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}

	result := b.String()
	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "proposal"
	}
	return result
}
