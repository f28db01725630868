package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yockii/knorm/internal/constant"
	"github.com/yockii/knorm/internal/model"
)

func TestPromptOptionScenario(t *testing.T) {
	srv := NewPromptOptionService(newTestDB(t))
	ctx := testContext(t)

	first := &model.PromptOption{UUID: 5000, Provider: "openai", Model: "gpt-4", Aiopts: `{"temperature":0.3}`}
	require.NoError(t, srv.CreateNew(ctx, first))
	assert.Equal(t, int64(1), first.Sortno)
	assert.Equal(t, "gpt-4", first.Name)
	assert.Equal(t, "openai@gpt-4", first.Modelid)
	assert.False(t, first.IsDefault)
	assert.Equal(t, constant.StatusNormal, first.Status)
	assert.Equal(t, map[string]interface{}{"temperature": 0.3}, first.AiOptsJSON)

	err := srv.CreateNew(ctx, &model.PromptOption{UUID: 5000, Provider: "openai", Model: "gpt-4"})
	require.ErrorIs(t, err, constant.ErrRecordDuplicate)
	assert.Contains(t, err.Error(), "5000")

	second := &model.PromptOption{UUID: 5000, Provider: "openai", Model: "gpt-4o"}
	require.NoError(t, srv.CreateNew(ctx, second))
	assert.Equal(t, int64(2), second.Sortno)

	other := &model.PromptOption{UUID: 5001, Provider: "openai", Model: "gpt-4", IsDefault: true}
	require.NoError(t, srv.CreateNew(ctx, other))
	assert.Equal(t, int64(1), other.Sortno)
	assert.False(t, other.IsDefault)

	ok, err := srv.SetDefault(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = srv.SetDefault(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = srv.SetDefault(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := srv.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
	reloaded, err = srv.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsDefault)
	// 其他模板不受影响
	reloaded, err = srv.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsDefault)

	ok, err = srv.SetDefault(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPromptOptionCreateInvalid(t *testing.T) {
	srv := NewPromptOptionService(newTestDB(t))
	ctx := testContext(t)
	assert.ErrorIs(t, srv.CreateNew(ctx, &model.PromptOption{Provider: "openai", Model: "gpt-4"}), constant.ErrInvalidParams)
	assert.ErrorIs(t, srv.CreateNew(ctx, &model.PromptOption{UUID: 5000, Model: "gpt-4"}), constant.ErrInvalidParams)
	assert.ErrorIs(t, srv.CreateNew(ctx, &model.PromptOption{UUID: 5000, Provider: "openai"}), constant.ErrInvalidParams)
}

func TestPromptOptionUpdateSome(t *testing.T) {
	srv := NewPromptOptionService(newTestDB(t))
	ctx := testContext(t)

	a := &model.PromptOption{UUID: 5000, Provider: "openai", Model: "gpt-4", Remark: "keep"}
	b := &model.PromptOption{UUID: 5000, Provider: "openai", Model: "gpt-4o"}
	require.NoError(t, srv.CreateNew(ctx, a))
	require.NoError(t, srv.CreateNew(ctx, b))

	_, err := srv.UpdateSome(ctx, &model.PromptOption{BaseModel: model.BaseModel{ID: 77}, Name: "x"})
	assert.ErrorIs(t, err, constant.ErrRecordNotFound)

	_, err = srv.UpdateSome(ctx, &model.PromptOption{BaseModel: model.BaseModel{ID: b.ID}, Model: "gpt-4"})
	assert.ErrorIs(t, err, constant.ErrRecordDuplicate)
	reloaded, err := srv.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", reloaded.Model)

	// 不改变三元组的更新不算冲突
	updated, err := srv.UpdateSome(ctx, &model.PromptOption{
		BaseModel:  model.BaseModel{ID: a.ID},
		Model:      "gpt-4",
		Name:       "GPT 4",
		AiOptsJSON: map[string]interface{}{"top_p": 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, "GPT 4", updated.Name)
	assert.Equal(t, "keep", updated.Remark)
	assert.JSONEq(t, `{"top_p":0.9}`, updated.Aiopts)

	reloaded, err = srv.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"top_p": 0.9}, reloaded.AiOptsJSON)
	assert.Equal(t, int64(1), reloaded.Sortno)
}

func TestPromptOptionUpdateRebuildsModelid(t *testing.T) {
	srv := NewPromptOptionService(newTestDB(t))
	ctx := testContext(t)

	o := &model.PromptOption{UUID: 5000, Provider: "openai", Model: "gpt-4"}
	require.NoError(t, srv.CreateNew(ctx, o))
	assert.Equal(t, "openai@gpt-4", o.Modelid)

	updated, err := srv.UpdateSome(ctx, &model.PromptOption{BaseModel: model.BaseModel{ID: o.ID}, Provider: "azure"})
	require.NoError(t, err)
	assert.Equal(t, "azure@gpt-4", updated.Modelid)

	reloaded, err := srv.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "azure", reloaded.Provider)
	assert.Equal(t, "azure@gpt-4", reloaded.Modelid)

	// 只改名称时保留原modelid
	updated, err = srv.UpdateSome(ctx, &model.PromptOption{BaseModel: model.BaseModel{ID: o.ID}, Name: "GPT-4 Azure"})
	require.NoError(t, err)
	assert.Equal(t, "azure@gpt-4", updated.Modelid)
}

func TestPromptOptionQueries(t *testing.T) {
	srv := NewPromptOptionService(newTestDB(t))
	ctx := testContext(t)

	for _, o := range []*model.PromptOption{
		{UUID: 5000, Provider: "openai", Model: "gpt-4"},
		{UUID: 5000, Provider: "deepseek", Model: "chat"},
		{UUID: 5001, Provider: "openai", Model: "gpt-4o"},
		{UUID: 5002, Provider: "qwen", Model: "max", Aiopts: "not json"},
	} {
		require.NoError(t, srv.CreateNew(ctx, o))
	}

	ok, err := srv.SetSortno(ctx, mustFindOption(t, srv, 5000, "openai", "gpt-4").ID, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := srv.GetTemplateOptions(ctx, 5000)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "chat", list[0].Model)
	assert.Equal(t, "gpt-4", list[1].Model)

	list, err = srv.GetTemplateOptions(ctx, 5001, 5002, 9999)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(5001), list[0].UUID)
	assert.Nil(t, list[1].AiOptsJSON)

	list, err = srv.GetTemplateOptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	page, err := srv.Pagination(ctx, &PromptOptionQuery{UUID: 5000})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = srv.Pagination(ctx, &PromptOptionQuery{PageQuery: PageQuery{Keywords: "gpt"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = srv.Pagination(ctx, &PromptOptionQuery{PageQuery: PageQuery{Keywords: "5002"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "qwen", page.List[0].Provider)

	page, err = srv.Pagination(ctx, &PromptOptionQuery{UUID: 5000, PageQuery: PageQuery{Keywords: "openai@"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	ok, err = srv.SetStatus(ctx, page.List[0].ID, constant.StatusForbidden)
	require.NoError(t, err)
	assert.True(t, ok)

	repeat, err := srv.FindRepeat(ctx, page.List[0].ID, 5000, "openai", "gpt-4")
	require.NoError(t, err)
	assert.Nil(t, repeat)
	repeat, err = srv.FindRepeat(ctx, 0, 5000, "openai", "gpt-4")
	require.NoError(t, err)
	assert.NotNil(t, repeat)

	next, err := srv.NextSortno(ctx, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(11), next)
	next, err = srv.NextSortno(ctx, 6000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
}

func mustFindOption(t *testing.T, srv PromptOptionService, uuid uint64, provider, modelName string) *model.PromptOption {
	t.Helper()
	o, err := srv.FindExists(testContext(t), uuid, provider, modelName)
	require.NoError(t, err)
	require.NotNil(t, o)
	return o
}
