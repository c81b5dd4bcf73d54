package entity

import "strings"

// Section описывает один из одиннадцати разделов заявки.
// Sections задаёт состав и порядок разделов для промпта, SQL-адаптера,
// кэша черновиков и экспорта.
type Section struct {
	Key     string
	Label   string
	Column  string
	Aliases []string
	field   func(*ProposalFields) *string
}

func (s Section) Value(f *ProposalFields) string {
	return *s.field(f)
}

func (s Section) Set(f *ProposalFields, value string) {
	*s.field(f) = value
}

var Sections = []Section{
	{
		Key: "coverLetter", Label: "Cover Letter", Column: "cover_letter",
		Aliases: []string{"cover_letter"},
		field:   func(f *ProposalFields) *string { return &f.CoverLetter },
	},
	{
		Key: "executiveSummary", Label: "Executive Summary", Column: "executive_summary",
		Aliases: []string{"executive_summary"},
		field:   func(f *ProposalFields) *string { return &f.ExecutiveSummary },
	},
	{
		Key: "introductionAndBackground", Label: "Introduction and Background", Column: "introduction_and_background",
		Aliases: []string{"introduction_and_background", "introduction"},
		field:   func(f *ProposalFields) *string { return &f.IntroductionAndBackground },
	},
	{
		Key: "statementOfNeed", Label: "Statement of Need", Column: "statement_of_need",
		Aliases: []string{"statement_of_need"},
		field:   func(f *ProposalFields) *string { return &f.StatementOfNeed },
	},
	{
		Key: "goalsObjectivesAndSpecificAims", Label: "Goals, Objectives and Specific Aims", Column: "goals_objectives_and_specific_aims",
		Aliases: []string{"goals_objectives_and_specific_aims", "goals"},
		field:   func(f *ProposalFields) *string { return &f.GoalsObjectivesAndSpecificAims },
	},
	{
		Key: "commercializationStrategy", Label: "Commercialization Strategy", Column: "commercialization_strategy",
		Aliases: []string{"commercialization_strategy"},
		field:   func(f *ProposalFields) *string { return &f.CommercializationStrategy },
	},
	{
		Key: "budgetAndJustification", Label: "Budget and Justification", Column: "budget_and_justification",
		Aliases: []string{"budget_and_justification", "budget"},
		field:   func(f *ProposalFields) *string { return &f.BudgetAndJustification },
	},
	{
		Key: "timelineAndMilestone", Label: "Timeline and Milestones", Column: "timeline_and_milestones",
		Aliases: []string{"timelineAndMilestones", "timeline_and_milestones", "timeline_and_milestone", "timeline"},
		field:   func(f *ProposalFields) *string { return &f.TimelineAndMilestones },
	},
	{
		Key: "evaluationAndImpactPlans", Label: "Evaluation and Impact Plans", Column: "evaluation_and_impact_plans",
		Aliases: []string{"evaluation_and_impact_plans", "evaluation"},
		field:   func(f *ProposalFields) *string { return &f.EvaluationAndImpactPlans },
	},
	{
		Key: "sustainabilityPlans", Label: "Sustainability Plans", Column: "sustainability_plans",
		Aliases: []string{"sustainability_plans", "sustainability"},
		field:   func(f *ProposalFields) *string { return &f.SustainabilityPlans },
	},
	{
		Key: "appendicesAndSupportingMaterials", Label: "Appendices and Supporting Materials", Column: "appendices_and_supporting_materials",
		Aliases: []string{"appendices_and_supporting_materials", "appendices"},
		field:   func(f *ProposalFields) *string { return &f.AppendicesAndSupportingMaterials },
	},
}

// FindSection ищет раздел по ключу, псевдониму или подписи без учёта регистра.
func FindSection(name string) (Section, bool) {
	for _, s := range Sections {
		if strings.EqualFold(s.Key, name) || strings.EqualFold(s.Label, name) || strings.EqualFold(s.Column, name) {
			return s, true
		}
		for _, alias := range s.Aliases {
			if strings.EqualFold(alias, name) {
				return s, true
			}
		}
	}
	return Section{}, false
}

