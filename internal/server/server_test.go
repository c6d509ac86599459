package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/extract"
	"github.com/joseph-ayodele/pantry-tracker/internal/services/inventory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockIngredients struct {
	mock.Mock
}

func (m *MockIngredients) Intake(ctx context.Context, ownerID uuid.UUID, req inventory.IntakeRequest) (*inventory.IntakeResult, error) {
	args := m.Called(ctx, ownerID, req)
	res, _ := args.Get(0).(*inventory.IntakeResult)
	return res, args.Error(1)
}

func (m *MockIngredients) List(ctx context.Context, ownerID uuid.UUID, status, category string) ([]entity.Ingredient, error) {
	args := m.Called(ctx, ownerID, status, category)
	items, _ := args.Get(0).([]entity.Ingredient)
	return items, args.Error(1)
}

func (m *MockIngredients) MarkUsed(ctx context.Context, ownerID, id uuid.UUID) (*entity.Ingredient, error) {
	args := m.Called(ctx, ownerID, id)
	ing, _ := args.Get(0).(*entity.Ingredient)
	return ing, args.Error(1)
}

type MockRecipes struct {
	mock.Mock
}

func (m *MockRecipes) Request(ctx context.Context, ownerID uuid.UUID, req entity.RecipeRequest) (uuid.UUID, error) {
	args := m.Called(ctx, ownerID, req)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRecipes) Get(ctx context.Context, ownerID, id uuid.UUID) (*entity.Recipe, error) {
	args := m.Called(ctx, ownerID, id)
	rec, _ := args.Get(0).(*entity.Recipe)
	return rec, args.Error(1)
}

func (m *MockRecipes) List(ctx context.Context, ownerID uuid.UUID, limit int) ([]entity.Recipe, error) {
	args := m.Called(ctx, ownerID, limit)
	list, _ := args.Get(0).([]entity.Recipe)
	return list, args.Error(1)
}

type stubDashboard struct {
	points []entity.UsageTrendPoint
}

func (s stubDashboard) Trends(context.Context, uuid.UUID) ([]entity.UsageTrendPoint, error) {
	return s.points, nil
}

func (stubDashboard) Stats(context.Context, uuid.UUID) (*entity.Statistics, error) {
	return &entity.Statistics{IngredientsCount: 3, ExpiringIngredients: 1, RecipesCount: 2}, nil
}

func (stubDashboard) Expiring(context.Context, uuid.UUID) ([]entity.Ingredient, error) {
	return []entity.Ingredient{}, nil
}

func (stubDashboard) Popular(context.Context, uuid.UUID, int) ([]entity.PopularIngredient, error) {
	return []entity.PopularIngredient{{Name: "卵", UsageCount: 4}}, nil
}

func (stubDashboard) Categories(context.Context, uuid.UUID) ([]entity.CategoryDistribution, error) {
	return []entity.CategoryDistribution{}, nil
}

type stubExporter struct{}

func (stubExporter) ExportInventoryXLSX(context.Context, uuid.UUID) ([]byte, error) {
	return []byte("PK"), nil
}

type testServer struct {
	router      *gin.Engine
	ingredients *MockIngredients
	recipes     *MockRecipes
	owner       uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{ingredients: new(MockIngredients), recipes: new(MockRecipes), owner: uuid.New()}
	ts.router = NewRouter(Deps{
		Ingredients: ts.ingredients,
		Recipes:     ts.recipes,
		Dashboard:   stubDashboard{points: []entity.UsageTrendPoint{{Date: "06/15", UsageCount: 2}}},
		Export:      stubExporter{},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	if req.Header.Get(HeaderUserID) == "" {
		req.Header.Set(HeaderUserID, ts.owner.String())
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func imageUpload(t *testing.T, contentType string, data []byte, prompt string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="fridge.jpg"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	if prompt != "" {
		require.NoError(t, mw.WriteField("prompt", prompt))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ingredients/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestRequiresOwner(t *testing.T) {
	ts := newTestServer(t)
	for _, header := range []string{"", "not-a-uuid", uuid.Nil.String()} {
		req := httptest.NewRequest(http.MethodGet, "/api/ingredients", nil)
		req.Header.Set(HeaderUserID, header)
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
	ts.ingredients.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHealthzNeedsNoOwner(t *testing.T) {
	ts := newTestServer(t)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestUploadImageCreated(t *testing.T) {
	ts := newTestServer(t)
	saved := []entity.Ingredient{{ID: uuid.New(), Name: "キャベツ", Quantity: 1, Unit: constants.UnitPiece}}
	ts.ingredients.On("Intake", mock.Anything, ts.owner, mock.MatchedBy(func(r inventory.IntakeRequest) bool {
		return r.Filename == "fridge.jpg" && r.MediaType == "image/jpeg" && r.Prompt == "半分使用済み" && len(r.Data) == 3
	})).Return(&inventory.IntakeResult{Ingredients: saved}, nil).Once()

	w := ts.do(imageUpload(t, "image/jpeg", []byte{1, 2, 3}, "半分使用済み"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Ingredients []entity.Ingredient `json:"ingredients"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Ingredients, 1)
	assert.Equal(t, "キャベツ", body.Ingredients[0].Name)
	ts.ingredients.AssertExpectations(t)
}

func TestUploadImageRejectsNonImage(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(imageUpload(t, "application/pdf", []byte("%PDF"), ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "画像ファイルのみ受け付けます", errorBody(t, w))
}

func TestUploadImageMissingFile(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/ingredients/images", bytes.NewBufferString("prompt=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := ts.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "画像ファイルが必要です", errorBody(t, w))
}

func TestUploadImageOverLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates more than 100 MB")
	}
	ts := newTestServer(t)
	w := ts.do(imageUpload(t, "image/png", make([]byte, constants.MaxImageBytes+1), ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ファイルサイズは100MB以下にしてください", errorBody(t, w))
	ts.ingredients.AssertNotCalled(t, "Intake", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadImageExhaustedIsBadGateway(t *testing.T) {
	ts := newTestServer(t)
	ts.ingredients.On("Intake", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("intake: %w", &extract.ExhaustedError{Attempts: 3, Err: errors.New("bad json")}))

	w := ts.do(imageUpload(t, "image/jpeg", []byte{1}, ""))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, msgAnalysisFailed, errorBody(t, w))
}

func TestCreateRecipeAccepted(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New()
	ts.recipes.On("Request", mock.Anything, ts.owner, mock.MatchedBy(func(r entity.RecipeRequest) bool {
		return r.RecipeName == "肉じゃが" && r.PeopleCount == 3 && len(r.Ingredients) == 1 && r.Ingredients[0].Unit == constants.UnitGram
	})).Return(id, nil).Once()

	body := `{"recipe_name":"肉じゃが","people_count":3,"ingredients":[{"name":"牛肉","quantity":200,"unit":"g"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/recipes", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := ts.do(req)

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.ID)
	ts.recipes.AssertExpectations(t)
}

func TestCreateRecipeAcceptsAllergyList(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New()
	ts.recipes.On("Request", mock.Anything, ts.owner, mock.MatchedBy(func(r entity.RecipeRequest) bool {
		return r.RecipeName == "カレー" && assert.ObjectsAreEqual([]string{"卵", "乳"}, r.Allergies)
	})).Return(id, nil).Once()

	body := `{"recipe_name":"カレー","people_count":2,"allergies":["卵","乳"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/recipes", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := ts.do(req)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	ts.recipes.AssertExpectations(t)
}

func TestCreateRecipeValidationError(t *testing.T) {
	ts := newTestServer(t)
	ts.recipes.On("Request", mock.Anything, mock.Anything, mock.Anything).
		Return(uuid.Nil, common.NewAppError("VALIDATION_ERROR", "people_count must be between 1 and 20", common.ErrValidation))

	req := httptest.NewRequest(http.MethodPost, "/api/recipes", bytes.NewBufferString(`{"recipe_name":"x","people_count":0}`))
	req.Header.Set("Content-Type", "application/json")
	w := ts.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "people_count must be between 1 and 20", errorBody(t, w))
}

func TestGetRecipe(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New()
	ts.recipes.On("Get", mock.Anything, ts.owner, id).
		Return(&entity.Recipe{ID: id, Status: constants.RecipeStatusCreating}, nil)
	missing := uuid.New()
	ts.recipes.On("Get", mock.Anything, ts.owner, missing).
		Return(nil, common.NewAppError("NOT_FOUND", "recipe not found", common.ErrNotFound))

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/recipes/"+id.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"creating"`)

	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/recipes/"+missing.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/recipes/nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRecipesLimit(t *testing.T) {
	ts := newTestServer(t)
	ts.recipes.On("List", mock.Anything, ts.owner, defaultRecipeLimit).Return([]entity.Recipe{}, nil).Once()
	ts.recipes.On("List", mock.Anything, ts.owner, 5).Return([]entity.Recipe{}, nil).Once()

	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/api/recipes", nil)).Code)
	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/api/recipes?limit=5", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(httptest.NewRequest(http.MethodGet, "/api/recipes?limit=-1", nil)).Code)
	ts.recipes.AssertExpectations(t)
}

func TestDashboardRoutes(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/dashboard/trends", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"trends":[{"date":"06/15","usage_count":2}]}`, w.Body.String())

	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ingredients_count":3,"expiring_ingredients":1,"recipes_count":2}`, w.Body.String())

	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/dashboard/popular?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/dashboard/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
}

func TestListIngredientsPassesFilters(t *testing.T) {
	ts := newTestServer(t)
	ts.ingredients.On("List", mock.Anything, ts.owner, "active", "fish").
		Return([]entity.Ingredient{{Name: "鮭", Category: constants.Fish}}, nil).Once()
	ts.ingredients.On("List", mock.Anything, ts.owner, "", "dessert").
		Return(nil, common.NewAppError("INVALID_INPUT", "unknown category: dessert", common.ErrInvalidInput)).Once()

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/ingredients?status=active&category=fish", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Ingredients []entity.Ingredient `json:"ingredients"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Ingredients, 1)
	assert.Equal(t, "鮭", body.Ingredients[0].Name)

	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/ingredients?category=dessert", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown category: dessert", errorBody(t, w))
	ts.ingredients.AssertExpectations(t)
}

func TestUseIngredient(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New()
	ts.ingredients.On("MarkUsed", mock.Anything, ts.owner, id).
		Return(&entity.Ingredient{ID: id, Status: constants.IngredientStatusUsed}, nil)

	w := ts.do(httptest.NewRequest(http.MethodPost, "/api/ingredients/"+id.String()+"/use", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"used"`)
}
