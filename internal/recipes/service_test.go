package recipes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/agent"
	"github.com/joseph-ayodele/pantry-tracker/internal/async"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/repository"
)

type scriptedAgent struct {
	mu      sync.Mutex
	content string
	err     error
	panics  bool
	prompts []string
}

func (a *scriptedAgent) Invoke(_ context.Context, prompt string, _ *agent.Attachment) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prompts = append(a.prompts, prompt)
	if a.panics {
		panic("agent exploded")
	}
	return a.content, a.err
}

func (a *scriptedAgent) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.prompts)
}

type rejectingQueue struct{}

func (rejectingQueue) Submit(context.Context, async.Task) error { return async.ErrQueueFull }

type fixture struct {
	svc         *Service
	recipes     repository.RecipeRepository
	ingredients repository.IngredientRepository
	queue       *async.Queue
}

func newFixture(t *testing.T, inv agent.Invoker, submitter Submitter) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := repository.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "recipes.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(client, logger) })
	require.NoError(t, repository.EnsureSchema(context.Background(), client))

	f := &fixture{
		recipes:     repository.NewRecipeRepository(client, logger),
		ingredients: repository.NewIngredientRepository(client, logger),
	}
	if submitter == nil {
		f.queue = async.NewQueue(logger, async.WithWorkers(1), async.WithTaskTimeout(5*time.Second))
		submitter = f.queue
	}
	f.svc = NewService(f.recipes, f.ingredients, inv, submitter, logger)
	return f
}

// drain waits for scheduled generation to finish.
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.queue.Shutdown(ctx)
}

func request() entity.RecipeRequest {
	return entity.RecipeRequest{RecipeName: "親子丼", PeopleCount: 2, MealPreference: "和食"}
}

func TestRequestCompletesWithDerivedDescription(t *testing.T) {
	long := "# 親子丼\n" + strings.Repeat("とろとろ卵でとじる。", 20) + "\n## 材料\n- 鶏もも肉: 200g"
	inv := &scriptedAgent{content: long}
	f := newFixture(t, inv, nil)
	owner := uuid.New()

	id, err := f.svc.Request(context.Background(), owner, request())
	require.NoError(t, err)
	f.drain(t)

	got, err := f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, constants.RecipeStatusCompleted, got.Status)
	assert.Equal(t, long, got.Content)
	assert.LessOrEqual(t, utf8.RuneCountInString(got.Description), 103)
	assert.True(t, strings.HasSuffix(got.Description, "..."))
	assert.Equal(t, 1, inv.calls())
}

func TestRequestEmptyContentFails(t *testing.T) {
	inv := &scriptedAgent{content: ""}
	f := newFixture(t, inv, nil)
	owner := uuid.New()

	id, err := f.svc.Request(context.Background(), owner, request())
	require.NoError(t, err)
	f.drain(t)

	got, err := f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, constants.RecipeStatusFailed, got.Status)
	assert.Equal(t, MsgEmptyContent, got.Description)
	assert.Empty(t, got.Content)
}

func TestRequestInvokeErrorFailsAfterOneCall(t *testing.T) {
	inv := &scriptedAgent{err: &agent.InvocationError{SessionID: "s", Err: errors.New("timeout")}}
	f := newFixture(t, inv, nil)
	owner := uuid.New()

	id, err := f.svc.Request(context.Background(), owner, request())
	require.NoError(t, err)
	f.drain(t)

	got, err := f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, constants.RecipeStatusFailed, got.Status)
	assert.Equal(t, MsgGenerationError, got.Description)
	assert.Empty(t, got.Content)
	assert.Equal(t, 1, inv.calls())
}

func TestRequestPanicMarksFailed(t *testing.T) {
	f := newFixture(t, &scriptedAgent{panics: true}, nil)
	owner := uuid.New()

	id, err := f.svc.Request(context.Background(), owner, request())
	require.NoError(t, err)
	f.drain(t)

	got, err := f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, constants.RecipeStatusFailed, got.Status)
}

func TestRequestQueueFullStillReturnsFailedJob(t *testing.T) {
	inv := &scriptedAgent{content: "unused"}
	f := newFixture(t, inv, rejectingQueue{})
	owner := uuid.New()

	id, err := f.svc.Request(context.Background(), owner, request())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	got, err := f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, constants.RecipeStatusFailed, got.Status)
	assert.Equal(t, 0, inv.calls())
}

func TestRequestIsVisibleAsCreatingBeforeGeneration(t *testing.T) {
	inv := &scriptedAgent{content: "x"}
	held := &holdingQueue{}
	f := newFixture(t, inv, held)
	owner := uuid.New()

	id, err := f.svc.Request(context.Background(), owner, request())
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, constants.RecipeStatusCreating, got.Status)
	assert.Equal(t, "2人分の和食レシピを生成中...", got.Description)
	assert.Empty(t, got.Content)
	require.Len(t, held.tasks, 1)
	assert.Equal(t, id.String(), held.tasks[0].Key)

	require.NoError(t, held.tasks[0].Run(context.Background()))
	got, err = f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, constants.RecipeStatusCompleted, got.Status)
}

type holdingQueue struct {
	tasks []async.Task
}

func (h *holdingQueue) Submit(_ context.Context, task async.Task) error {
	h.tasks = append(h.tasks, task)
	return nil
}

func TestRequestUsesInventoryWhenNoIngredientsGiven(t *testing.T) {
	inv := &scriptedAgent{content: "# 親子丼"}
	f := newFixture(t, inv, nil)
	owner := uuid.New()
	_, err := f.ingredients.CreateBatch(context.Background(), owner, []entity.Ingredient{{
		Name: "玉ねぎ", Quantity: 1, Unit: constants.UnitPiece, Category: constants.Vegetable,
		ExpirationDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	_, err = f.svc.Request(context.Background(), owner, request())
	require.NoError(t, err)
	f.drain(t)

	require.Equal(t, 1, inv.calls())
	assert.Contains(t, inv.prompts[0], "- 玉ねぎ：1個")
}

func TestRequestSendsAllergyList(t *testing.T) {
	inv := &scriptedAgent{content: "# 親子丼"}
	f := newFixture(t, inv, nil)
	owner := uuid.New()

	req := request()
	req.Allergies = []string{" 卵 ", "", "乳"}
	id, err := f.svc.Request(context.Background(), owner, req)
	require.NoError(t, err)
	f.drain(t)

	require.Equal(t, 1, inv.calls())
	assert.Contains(t, inv.prompts[0], "アレルギー: 卵, 乳\n")

	got, err := f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"卵", "乳"}, got.Allergies)
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t, &scriptedAgent{}, &holdingQueue{})

	_, err := f.svc.Request(context.Background(), uuid.Nil, request())
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	bad := request()
	bad.PeopleCount = 0
	_, err = f.svc.Request(context.Background(), uuid.New(), bad)
	assert.ErrorIs(t, err, common.ErrValidation)

	bad = request()
	bad.RecipeName = "  "
	_, err = f.svc.Request(context.Background(), uuid.New(), bad)
	assert.ErrorIs(t, err, common.ErrValidation)

	bad = request()
	bad.Ingredients = []entity.RecipeIngredient{{Name: "米", Quantity: 1, Unit: "kg"}}
	_, err = f.svc.Request(context.Background(), uuid.New(), bad)
	assert.ErrorIs(t, err, common.ErrValidation)

	bad = request()
	bad.Allergies = []string{strings.Repeat("卵", 51)}
	_, err = f.svc.Request(context.Background(), uuid.New(), bad)
	assert.ErrorIs(t, err, common.ErrValidation)

	bad = request()
	for i := 0; i < 21; i++ {
		bad.Allergies = append(bad.Allergies, fmt.Sprintf("item%d", i))
	}
	_, err = f.svc.Request(context.Background(), uuid.New(), bad)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDeriveDescription(t *testing.T) {
	assert.Equal(t, "# カレー ## 材料 - 玉ねぎ", DeriveDescription("# カレー\n## 材料\n- 玉ねぎ\n- にんじん"))
	assert.Equal(t, "one line", DeriveDescription("one line"))
	assert.Equal(t, "# カレー ## 材料 - 玉ねぎ", DeriveDescription("# カレー\r\n## 材料\r\n- 玉ねぎ\r\n- にんじん"))

	exact := strings.Repeat("あ", 100)
	assert.Equal(t, exact, DeriveDescription(exact))

	cut := DeriveDescription(strings.Repeat("あ", 101))
	assert.Equal(t, strings.Repeat("あ", 100)+"...", cut)
	assert.Equal(t, 103, utf8.RuneCountInString(cut))
}

func TestPlaceholderDescription(t *testing.T) {
	assert.Equal(t, "4人分のレシピを生成中...", PlaceholderDescription(entity.RecipeRequest{PeopleCount: 4}))
}
