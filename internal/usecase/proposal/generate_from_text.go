package proposal

import (
	"context"
	"strings"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
)

// GenerateFromTextUseCase превращает свободный текст отчёта в документ заявки.
// Ничего не сохраняет.
type GenerateFromTextUseCase struct {
	generator    repository.GenerationService
	instructions Instructions
}

func NewGenerateFromTextUseCase(generator repository.GenerationService, instructions Instructions) *GenerateFromTextUseCase {
	return &GenerateFromTextUseCase{
		generator:    generator,
		instructions: instructions.withDefaults(),
	}
}

func (uc *GenerateFromTextUseCase) Execute(ctx context.Context, reportText string) (string, error) {
	if strings.TrimSpace(reportText) == "" {
		return "", apperror.New(apperror.ErrCodeValidation, "report text is required")
	}

	text, err := uc.generator.Complete(ctx, repository.CompletionRequest{
		System:    uc.instructions.Generate,
		Prompt:    BuildReportPrompt(reportText),
		Operation: "generate_from_text",
	})
	if err != nil {
		return "", generationError(err, "failed to generate proposal")
	}
	if strings.TrimSpace(text) == "" {
		return NoContentGenerated, nil
	}
	return text, nil
}
