package valueobject

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
)

// FundingAmount: запрашиваемая сумма гранта в долларах.
type FundingAmount float64

func NewFundingAmount(amount float64) (FundingAmount, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, apperror.New(apperror.ErrCodeValidation, "funding amount must be a number")
	}
	if amount < 0 {
		return 0, apperror.New(apperror.ErrCodeValidation, "funding amount cannot be negative")
	}
	return FundingAmount(amount), nil
}

// ParseFundingAmount приводит произвольное значение к сумме; всё нечисловое превращается в 0.
func ParseFundingAmount(v any) FundingAmount {
	switch n := v.(type) {
	case float64:
		return sanitize(n)
	case float32:
		return sanitize(float64(n))
	case int:
		return sanitize(float64(n))
	case int64:
		return sanitize(float64(n))
	case FundingAmount:
		return sanitize(float64(n))
	case string:
		cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(n)
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		return sanitize(f)
	}
	return 0
}

func sanitize(f float64) FundingAmount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return FundingAmount(f)
}

func (a FundingAmount) IsPositive() bool {
	return a > 0
}

func (a FundingAmount) Float64() float64 {
	return float64(a)
}

// String форматирует сумму для промпта: без лишних нулей после запятой.
func (a FundingAmount) String() string {
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}

// Display форматирует сумму для документа: $50,000.
func (a FundingAmount) Display() string {
	whole := int64(math.Round(float64(a)))
	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteRune(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("$%s", b.String())
}
