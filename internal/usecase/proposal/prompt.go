package proposal

import (
	"fmt"
	"strings"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
)

const (
	DefaultFundingAgency  = "Grant Committee"
	DefaultResearcherName = "the Principal Investigator"
	NoContentGenerated    = "No content generated."

	DefaultSystemInstruction     = "You are an expert grant writer. Produce a professional, submission-ready funding proposal organized into the eleven named sections."
	DefaultEditSystemInstruction = "You are a helpful research grant assistant."
)

const generationPreamble = `Generate a professional, ready to use funding proposal based on the following information. Do not leave placeholders such as dates or addresses to be filled in later. Make the report comprehensive so that more data can be added if required.`

const generationClosing = `Format the proposal professionally with clear Markdown section headings.`

const editTemplate = `You are an expert grant writer.
The user wants to edit an existing funding proposal based on specific instructions.

ORIGINAL PROPOSAL:
"""
%s
"""

USER INSTRUCTIONS:
"%s"
%s
TASK:
Rewrite the proposal incorporating the user's instructions.
Maintain the professional tone, structure, and Markdown formatting.
Do not add conversational filler (like "Here is the updated version").
Return ONLY the full updated proposal text.`

const reportTemplate = `Convert the following research report into a professional funding proposal.
Organize it into these sections, in this order:
%s
Use only facts present in the report. Where the report is silent, write a neutral sentence rather than inventing figures.

REPORT:
"""
%s
"""`

// Instructions задаёт системные инструкции генерации и правки.
type Instructions struct {
	Generate string
	Edit     string
}

func (i Instructions) withDefaults() Instructions {
	if strings.TrimSpace(i.Generate) == "" {
		i.Generate = DefaultSystemInstruction
	}
	if strings.TrimSpace(i.Edit) == "" {
		i.Edit = DefaultEditSystemInstruction
	}
	return i
}

// BuildGenerationPrompt собирает промпт из полей заявки.
// Порядок и заголовки разделов фиксированы, одинаковые поля дают побайтно одинаковый промпт.
func BuildGenerationPrompt(f entity.ProposalFields, researcherName string) string {
	agency := strings.TrimSpace(f.FundingAgency)
	if agency == "" {
		agency = DefaultFundingAgency
	}
	researcher := strings.TrimSpace(researcherName)
	if researcher == "" {
		researcher = DefaultResearcherName
	}

	var b strings.Builder
	b.WriteString(generationPreamble)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Project Title: %s\n", strings.TrimSpace(f.ProjectTitle))
	fmt.Fprintf(&b, "Principal Investigator/Researcher Name: %s\n", researcher)
	fmt.Fprintf(&b, "Target Funding Agency: %s\n", agency)
	fmt.Fprintf(&b, "Funding Amount: $%s\n\n", f.FundingAmount.String())

	for _, s := range entity.Sections {
		fmt.Fprintf(&b, "%s: %s\n", s.Label, strings.TrimSpace(s.Value(&f)))
	}

	b.WriteString("\nPlease create a comprehensive, well-structured funding proposal that incorporates all the provided information into the following sections:\n")
	for i, s := range entity.Sections {
		fmt.Fprintf(&b, "%d. %s", i+1, s.Label)
		if i == 0 {
			fmt.Fprintf(&b, " (Address it to the %s and sign it as %s)", agency, researcher)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(generationClosing)
	return b.String()
}

// BuildEditPrompt собирает промпт правки: документ целиком плюс инструкция пользователя.
// section, если задан, сужает фокус правки, но модель всё равно возвращает весь документ.
func BuildEditPrompt(document, instruction, section string) string {
	focus := ""
	if section = strings.TrimSpace(section); section != "" {
		label := section
		if s, ok := entity.FindSection(section); ok {
			label = s.Label
		}
		focus = fmt.Sprintf("\nFOCUS SECTION:\nApply the instructions to the \"%s\" section; reproduce every other section unchanged.\n", label)
	}
	return fmt.Sprintf(editTemplate, document, strings.TrimSpace(instruction), focus)
}

// BuildReportPrompt собирает промпт для генерации заявки из свободного текста отчёта.
func BuildReportPrompt(report string) string {
	var sections strings.Builder
	for i, s := range entity.Sections {
		fmt.Fprintf(&sections, "%d. %s\n", i+1, s.Label)
	}
	return fmt.Sprintf(reportTemplate, sections.String(), strings.TrimSpace(report))
}
