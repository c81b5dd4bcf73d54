package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
	"github.com/ignatzorin/grantwriter-backend/internal/http/middleware"
	"github.com/ignatzorin/grantwriter-backend/internal/infrastructure/cache"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/dto"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/handler"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/response"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/proposal"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testEnv struct {
	router    *gin.Engine
	repo      *memProposals
	generator *stubGenerator
	userID    uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &testEnv{
		repo:      newMemProposals(),
		generator: &stubGenerator{text: "# Generated proposal"},
		userID:    uuid.New(),
	}
	uc := proposal.NewUseCases(proposal.Dependencies{
		Proposals: env.repo,
		Drafts:    cache.NewRedisDraftCacheWithClient(client, time.Hour),
		Generator: env.generator,
	})
	h := handler.NewProposalHandler(uc)

	r := gin.New()
	api := r.Group("/api", middleware.AuthMiddleware(stubTokens{}))
	api.POST("/proposals", h.Create)
	api.GET("/proposals/:ownerId", h.List)
	api.GET("/proposals/:ownerId/:id", h.Get)
	api.GET("/proposals/:ownerId/:id/draft", h.Draft)
	api.PUT("/proposals/:id", h.Update)
	api.DELETE("/proposals/:ownerId/:id", h.Delete)
	api.POST("/proposals/:id/generate", h.Generate)
	api.POST("/proposals/:id/edit", h.Edit)
	api.GET("/stats/:ownerId", h.Stats)
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenFor(e.userID))

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (e *testEnv) createDraft(t *testing.T, body map[string]any) dto.ProposalResponse {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/api/proposals", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p dto.ProposalResponse
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func validFields() map[string]any {
	return map[string]any{
		"projectTitle":         "Soil Carbon Mapping",
		"fundingAgency":        "NSF",
		"fundingAmount":        50000,
		"timelineAndMilestone": "Year 1: field work",
	}
}

func TestProposalHandler_CreateDraft(t *testing.T) {
	env := newTestEnv(t)

	p := env.createDraft(t, map[string]any{"title": "Legacy title", "funding_amount": "$1,500"})

	assert.Equal(t, env.userID, p.OwnerID)
	assert.Equal(t, "Legacy title", p.ProjectTitle)
	assert.Equal(t, 1500.0, p.FundingAmount)
	assert.Equal(t, "draft", p.Status)

	stored, ok := env.repo.get(p.ID)
	require.True(t, ok)
	assert.Equal(t, valueobject.ProposalStatusDraft, stored.Status)
}

func TestProposalHandler_CreateForeignOwnerIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	body := validFields()
	body["ownerId"] = uuid.NewString()
	w, resp := env.do(t, http.MethodPost, "/api/proposals", body)

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestProposalHandler_SubmitRequiresTitleAndAmount(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodPost, "/api/proposals", map[string]any{"status": "submitted", "fundingAmount": 10})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestProposalHandler_UpdateCannotMoveStatusBack(t *testing.T) {
	env := newTestEnv(t)
	body := validFields()
	body["status"] = "submitted"
	created := env.createDraft(t, body)

	body["status"] = "draft"
	w, resp := env.do(t, http.MethodPut, "/api/proposals/"+created.ID.String(), body)

	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_STATE", resp.Error.Code)
}

func TestProposalHandler_ListOwnAndForeign(t *testing.T) {
	env := newTestEnv(t)
	env.createDraft(t, validFields())

	w, resp := env.do(t, http.MethodGet, "/api/proposals/"+env.userID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []dto.ProposalResponse
	require.NoError(t, json.Unmarshal(resp.Data, &items))
	assert.Len(t, items, 1)
	assert.Empty(t, w.Header().Get(response.DegradedHeader))

	w, _ = env.do(t, http.MethodGet, "/api/proposals/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProposalHandler_ListFallsBackToCacheWhenStoreIsDown(t *testing.T) {
	env := newTestEnv(t)
	created := env.createDraft(t, validFields())
	env.repo.setDown(true)

	w, resp := env.do(t, http.MethodGet, "/api/proposals/"+env.userID.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get(response.DegradedHeader))
	var items []dto.ProposalResponse
	require.NoError(t, json.Unmarshal(resp.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)
}

func TestProposalHandler_ListRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodGet, "/api/proposals/"+env.userID.String()+"?status=archived", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProposalHandler_GenerateNew(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodPost, "/api/proposals/new/generate", validFields())

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out dto.GeneratedResponse
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.Equal(t, "# Generated proposal", out.GeneratedProposal)
	assert.Equal(t, "generated", out.Proposal.Status)

	stored, ok := env.repo.get(out.Proposal.ID)
	require.True(t, ok)
	assert.Equal(t, "# Generated proposal", stored.GeneratedProposal)
	require.Len(t, env.generator.requests, 1)
	assert.Contains(t, env.generator.requests[0].Prompt, "Soil Carbon Mapping")
}

func TestProposalHandler_GenerateFailureKeepsRecord(t *testing.T) {
	env := newTestEnv(t)
	body := validFields()
	body["status"] = "submitted"
	created := env.createDraft(t, body)
	env.generator.err = errors.New("upstream 503")

	w, resp := env.do(t, http.MethodPost, "/api/proposals/"+created.ID.String()+"/generate", validFields())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "GENERATION_FAILED", resp.Error.Code)

	stored, _ := env.repo.get(created.ID)
	assert.Equal(t, valueobject.ProposalStatusSubmitted, stored.Status)
	assert.Empty(t, stored.GeneratedProposal)
}

func TestProposalHandler_EditWithoutDocument(t *testing.T) {
	env := newTestEnv(t)
	created := env.createDraft(t, validFields())

	w, resp := env.do(t, http.MethodPost, "/api/proposals/"+created.ID.String()+"/edit", map[string]any{"userPrompt": "shorter"})

	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_STATE", resp.Error.Code)
}

func TestProposalHandler_EditReplacesDocument(t *testing.T) {
	env := newTestEnv(t)
	w, resp := env.do(t, http.MethodPost, "/api/proposals/new/generate", validFields())
	require.Equal(t, http.StatusOK, w.Code)
	var generated dto.GeneratedResponse
	require.NoError(t, json.Unmarshal(resp.Data, &generated))

	env.generator.text = "# Edited proposal"
	w, resp = env.do(t, http.MethodPost, "/api/proposals/"+generated.Proposal.ID.String()+"/edit", map[string]any{
		"ownerId":    env.userID.String(),
		"userPrompt": "make the summary shorter",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var edited dto.GeneratedResponse
	require.NoError(t, json.Unmarshal(resp.Data, &edited))
	assert.Equal(t, "# Edited proposal", edited.GeneratedProposal)
	assert.Equal(t, "generated", edited.Proposal.Status)
}

func TestProposalHandler_EditRequiresPrompt(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/proposals/"+uuid.NewString()+"/edit", map[string]any{"userPrompt": "  "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProposalHandler_DeleteThenGet(t *testing.T) {
	env := newTestEnv(t)
	created := env.createDraft(t, validFields())
	path := "/api/proposals/" + env.userID.String() + "/" + created.ID.String()

	w, _ := env.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodGet, path+"/draft", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProposalHandler_Stats(t *testing.T) {
	env := newTestEnv(t)
	env.createDraft(t, validFields())
	submitted := validFields()
	submitted["status"] = "submitted"
	env.createDraft(t, submitted)

	w, resp := env.do(t, http.MethodGet, "/api/stats/"+env.userID.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var stats dto.StatsResponse
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Drafts)
	assert.Equal(t, 1, stats.Submitted)
	assert.Equal(t, 100000.0, stats.TotalFunding)
}

func TestProposalHandler_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/proposals/"+env.userID.String(), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProposalResponse_CoversEverySection(t *testing.T) {
	p := &entity.Proposal{ID: uuid.New(), OwnerID: uuid.New()}
	for _, s := range entity.Sections {
		s.Set(&p.ProposalFields, "text of "+s.Key)
	}

	raw, err := json.Marshal(dto.ToProposalResponse(p))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, s := range entity.Sections {
		assert.Equal(t, "text of "+s.Key, decoded[s.Key], s.Key)
	}
}

func TestProposalHandler_CreateWithStoreDownReturnsKeptDraft(t *testing.T) {
	env := newTestEnv(t)
	env.repo.setDown(true)

	w, resp := env.do(t, http.MethodPost, "/api/proposals", validFields())

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DATABASE_ERROR", resp.Error.Code)
	var kept dto.ProposalResponse
	require.NoError(t, json.Unmarshal(resp.Data, &kept))
	require.NotEqual(t, uuid.Nil, kept.ID)

	env.repo.setDown(false)
	w, _ = env.do(t, http.MethodGet, "/api/proposals/"+env.userID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodDelete, "/api/proposals/"+env.userID.String()+"/"+kept.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = env.do(t, http.MethodGet, "/api/proposals/"+env.userID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []dto.ProposalResponse
	require.NoError(t, json.Unmarshal(resp.Data, &items))
	assert.Empty(t, items)
}
