package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
)

// Константы валидации
const (
	MinDisplayNameLength  = 2
	MaxDisplayNameLength  = 100
	MaxProjectTitleLength = 300
	MaxAgencyLength       = 200
	MaxSectionLength      = 20000
	MaxInstructionLength  = 4000
	MaxReportLength       = 100000
	MaxFundingAmount      = 1000000000.0
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("email format is invalid")
	}
	localPart, domainPart := parts[0], parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("email local part must be 1 to 64 characters")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("email domain must be 1 to 255 characters")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("email local part contains invalid characters")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("email domain is invalid")
	}
	return nil
}

// ValidateDisplayName пропускает пустое имя: его выведут из email.
func ValidateDisplayName(displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil
	}
	return ValidateLength("display name", displayName, MinDisplayNameLength, MaxDisplayNameLength)
}

// ValidateProposalFields ограничивает размеры полей заявки.
// Обязательность названия и суммы проверяет сама сущность.
func ValidateProposalFields(f entity.ProposalFields) error {
	if err := ValidateLength("projectTitle", f.ProjectTitle, 0, MaxProjectTitleLength); err != nil {
		return err
	}
	if err := ValidateLength("fundingAgency", f.FundingAgency, 0, MaxAgencyLength); err != nil {
		return err
	}
	if f.FundingAmount.Float64() > MaxFundingAmount {
		return fmt.Errorf("fundingAmount must not exceed %.0f", MaxFundingAmount)
	}
	for _, s := range entity.Sections {
		if err := ValidateLength(s.Key, s.Value(&f), 0, MaxSectionLength); err != nil {
			return err
		}
	}
	return nil
}

func ValidateInstruction(instruction string) error {
	if strings.TrimSpace(instruction) == "" {
		return fmt.Errorf("userPrompt is required")
	}
	return ValidateLength("userPrompt", instruction, 0, MaxInstructionLength)
}

func ValidateReport(report string) error {
	if strings.TrimSpace(report) == "" {
		return fmt.Errorf("reportText is required")
	}
	return ValidateLength("reportText", report, 0, MaxReportLength)
}
