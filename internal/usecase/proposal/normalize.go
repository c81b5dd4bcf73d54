package proposal

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
)

// legacyIDNamespace даёт стабильный UUID для не-UUID идентификаторов старых записей.
var legacyIDNamespace = uuid.MustParse("6f1c9a52-4d0b-4f43-9a6e-2b8f3c5d7e10")

var (
	idKeys        = []string{"_id", "id", "proposal_id", "proposalId"}
	ownerKeys     = []string{"ownerId", "owner_id", "userId", "user_id"}
	titleKeys     = []string{"projectTitle", "title", "project_title"}
	agencyKeys    = []string{"fundingAgency", "funding_agency", "agency"}
	amountKeys    = []string{"fundingAmount", "funding_amount", "amount"}
	generatedKeys = []string{"generatedProposal", "generated_proposal", "report", "content"}
	createdKeys   = []string{"createdAt", "created_at"}
	updatedKeys   = []string{"updatedAt", "updated_at"}
)

// Normalize приводит запись любого происхождения (ответ API, кэш, аргументы RPC)
// к одной канонической форме.
func Normalize(raw map[string]any, now time.Time) *entity.Proposal {
	m := flatten(raw)

	p := &entity.Proposal{
		ID:                resolveID(firstString(m, idKeys...)),
		OwnerID:           parseUUID(firstString(m, ownerKeys...)),
		GeneratedProposal: firstString(m, generatedKeys...),
	}
	p.ProposalFields = NormalizeFields(m)
	p.Status = valueobject.InferProposalStatus(firstString(m, "status"), p.GeneratedProposal)

	created, hasCreated := firstTime(m, createdKeys...)
	updated, hasUpdated := firstTime(m, updatedKeys...)
	switch {
	case hasUpdated:
	case hasCreated:
		updated = created
	default:
		updated = now
	}
	if !hasCreated {
		created = updated
	}
	p.CreatedAt = created.UTC()
	p.UpdatedAt = updated.UTC()

	if strings.TrimSpace(p.ProjectTitle) == "" {
		p.ProjectTitle = entity.DefaultProjectTitle
	}
	return p
}

// NormalizeFields извлекает четырнадцать полей без подстановки названия по умолчанию:
// пустое название должно доходить до валидации.
func NormalizeFields(raw map[string]any) entity.ProposalFields {
	m := flatten(raw)
	f := entity.ProposalFields{
		ProjectTitle:  strings.TrimSpace(firstString(m, titleKeys...)),
		FundingAgency: strings.TrimSpace(firstString(m, agencyKeys...)),
	}
	if v, ok := firstValue(m, amountKeys...); ok {
		f.FundingAmount = valueobject.ParseFundingAmount(v)
	}
	for _, s := range entity.Sections {
		keys := append([]string{s.Key}, s.Aliases...)
		s.Set(&f, firstString(m, keys...))
	}
	return f
}

// NormalizeEntity применяет те же гарантии к уже типизированной записи.
func NormalizeEntity(p *entity.Proposal, now time.Time) *entity.Proposal {
	n := p.Clone()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if strings.TrimSpace(n.ProjectTitle) == "" {
		n.ProjectTitle = entity.DefaultProjectTitle
	}
	n.FundingAmount = valueobject.ParseFundingAmount(n.FundingAmount.Float64())
	if n.UpdatedAt.IsZero() {
		if !n.CreatedAt.IsZero() {
			n.UpdatedAt = n.CreatedAt
		} else {
			n.UpdatedAt = now
		}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = n.UpdatedAt
	}
	n.Status = valueobject.InferProposalStatus(string(n.Status), n.GeneratedProposal)
	return n
}

// Merge сводит локальные черновики и записи хранилища в один список без дублей.
// Локальные записи применяются первыми, удалённые вторыми: при совпадении id
// побеждает хранилище. Сортировка по updatedAt по убыванию, при равенстве по id.
func Merge(local, remote []*entity.Proposal, now time.Time) []*entity.Proposal {
	byID := make(map[uuid.UUID]*entity.Proposal, len(local)+len(remote))
	for _, p := range local {
		if p == nil {
			continue
		}
		n := NormalizeEntity(p, now)
		byID[n.ID] = n
	}
	for _, p := range remote {
		if p == nil {
			continue
		}
		n := NormalizeEntity(p, now)
		byID[n.ID] = n
	}

	result := make([]*entity.Proposal, 0, len(byID))
	for _, p := range byID {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result
}

// flatten поднимает вложенный объект "proposal" на верхний уровень.
func flatten(raw map[string]any) map[string]any {
	nested, ok := raw["proposal"].(map[string]any)
	if !ok {
		return raw
	}
	m := make(map[string]any, len(raw)+len(nested))
	for k, v := range raw {
		if k != "proposal" {
			m[k] = v
		}
	}
	for k, v := range nested {
		if !isBlank(v) {
			m[k] = v
		}
	}
	return m
}

func resolveID(raw string) uuid.UUID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.New()
	}
	if id, err := uuid.Parse(raw); err == nil {
		return id
	}
	return uuid.NewSHA1(legacyIDNamespace, []byte(raw))
}

func parseUUID(raw string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func firstValue(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && !isBlank(v) {
			return v, true
		}
	}
	return nil, false
}

func firstString(m map[string]any, keys ...string) string {
	v, ok := firstValue(m, keys...)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	case uuid.UUID:
		return s.String()
	case time.Time:
		return s.Format(time.RFC3339Nano)
	}
	return ""
}

func firstTime(m map[string]any, keys ...string) (time.Time, bool) {
	v, ok := firstValue(m, keys...)
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	case float64:
		return time.UnixMilli(int64(t)), true
	case int64:
		return time.UnixMilli(t), true
	}
	return time.Time{}, false
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
