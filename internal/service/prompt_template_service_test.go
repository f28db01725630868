package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yockii/knorm/internal/constant"
	"github.com/yockii/knorm/internal/model"
	"gorm.io/gorm"
)

func newTemplateServices(t *testing.T) (*promptTemplateService, *promptOptionService) {
	db := newTestDB(t)
	optionSrv := NewPromptOptionService(db)
	return NewPromptTemplateService(db, optionSrv), optionSrv
}

func TestPromptTemplateCreateNew(t *testing.T) {
	srv, _ := newTemplateServices(t)
	ctx := testContext(t)

	next, err := srv.NextUUID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(constant.StartUUID), next)

	first := &model.PromptTemplate{
		Title: "翻译助手",
		PresetMessagesJSON: []model.ChatMessage{
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "你好"},
		},
	}
	require.NoError(t, srv.CreateNew(ctx, first))
	assert.Equal(t, uint64(5000), first.ID)
	assert.Equal(t, int64(1), first.Sortno)
	assert.Equal(t, constant.StatusNormal, first.Status)
	assert.JSONEq(t, `[{"role":"user","content":"hello"},{"role":"assistant","content":"你好"}]`, first.PresetMessages)

	second := &model.PromptTemplate{Title: "摘要", PresetMessages: "{broken"}
	require.NoError(t, srv.CreateNew(ctx, second))
	assert.Equal(t, uint64(5001), second.ID)
	assert.Equal(t, int64(2), second.Sortno)
	assert.Nil(t, second.PresetMessagesJSON)

	reloaded, err := srv.GetByID(ctx, 5000)
	require.NoError(t, err)
	assert.Len(t, reloaded.PresetMessagesJSON, 2)
	assert.Equal(t, "你好", reloaded.PresetMessagesJSON[1].Content)

	assert.ErrorIs(t, srv.CreateNew(ctx, &model.PromptTemplate{Title: "  "}), constant.ErrInvalidParams)
}

func TestPromptTemplateSoftDelete(t *testing.T) {
	srv, _ := newTemplateServices(t)
	ctx := testContext(t)

	require.NoError(t, srv.CreateNew(ctx, &model.PromptTemplate{Title: "a"}))
	require.NoError(t, srv.CreateNew(ctx, &model.PromptTemplate{Title: "b"}))

	ok, err := srv.RemoveByID(ctx, 5001)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = srv.RemoveByID(ctx, 5001)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = srv.GetByID(ctx, 5001)
	assert.ErrorIs(t, err, constant.ErrRecordNotFound)
	deleted, err := srv.GetWithDeleted(ctx, 5001)
	require.NoError(t, err)
	assert.True(t, deleted.DeletedAt.Valid)

	// 已删除的uuid不会被重新分配
	next, err := srv.NextUUID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5002), next)

	page, err := srv.Pagination(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	page, err = srv.Pagination(ctx, &PromptTemplateQuery{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	ok, err = srv.SetStatus(ctx, 5001, constant.StatusForbidden)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPromptTemplateUpdateAndSetters(t *testing.T) {
	srv, _ := newTemplateServices(t)
	ctx := testContext(t)

	require.NoError(t, srv.CreateNew(ctx, &model.PromptTemplate{Title: "a", Group: "g1", Remark: "r"}))

	ok, err := srv.UpdateSome(ctx, &model.PromptTemplate{ID: 5000, Title: "a2", Kno: "kn_x", Status: constant.StatusForbidden})
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := srv.GetByID(ctx, 5000)
	require.NoError(t, err)
	assert.Equal(t, "a2", reloaded.Title)
	assert.Equal(t, "kn_x", reloaded.Kno)
	assert.Equal(t, "g1", reloaded.Group)
	assert.Equal(t, "r", reloaded.Remark)
	assert.Equal(t, constant.StatusNormal, reloaded.Status)

	ok, err = srv.UpdateSome(ctx, &model.PromptTemplate{ID: 6000, Title: "x"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = srv.SetSortno(ctx, 5000, 50)
	require.NoError(t, err)
	assert.True(t, ok)
	next, err := srv.NextSortno(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(51), next)

	ok, err = srv.SetStatus(ctx, 5000, constant.StatusForbidden)
	require.NoError(t, err)
	assert.True(t, ok)
	status := constant.StatusForbidden
	page, err := srv.Pagination(ctx, &PromptTemplateQuery{Status: &status, Group: "g1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestPromptTemplatePaginationKeywords(t *testing.T) {
	srv, _ := newTemplateServices(t)
	ctx := testContext(t)

	for _, tpl := range []*model.PromptTemplate{
		{Title: "代码审查", Kno: "kn_code", Group: "dev"},
		{Title: "周报", Kno: "kn_report", Remark: "给领导看的代码统计"},
		{Title: "翻译", Kno: "xkn_code", Group: "dev", Petype: "chat"},
	} {
		require.NoError(t, srv.CreateNew(ctx, tpl))
	}

	page, err := srv.Pagination(ctx, &PromptTemplateQuery{PageQuery: PageQuery{Keywords: "代码"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	// kno 只做前缀匹配
	page, err = srv.Pagination(ctx, &PromptTemplateQuery{PageQuery: PageQuery{Keywords: "kn_"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = srv.Pagination(ctx, &PromptTemplateQuery{Group: "dev", PageQuery: PageQuery{Keywords: "kn_"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "代码审查", page.List[0].Title)

	page, err = srv.Pagination(ctx, &PromptTemplateQuery{Group: "dev", Petype: "chat"})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, uint64(5002), page.List[0].ID)
}

func TestBuildOnePetCache(t *testing.T) {
	srv, optionSrv := newTemplateServices(t)
	ctx := testContext(t)

	c, err := srv.BuildOnePetCache(ctx, 5000)
	require.NoError(t, err)
	assert.Nil(t, c)

	require.NoError(t, srv.CreateNew(ctx, &model.PromptTemplate{Title: "t", SystemMessage: "you are", PresetMessages: `[{"role":"user","content":"q"}]`}))

	c, err = srv.BuildOnePetCache(ctx, 5000)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.NotNil(t, c.Models)
	assert.Empty(t, c.Models)
	assert.False(t, c.Ready)
	assert.Equal(t, "you are", c.SystemMessage)
	assert.Len(t, c.PresetMessages, 1)

	a := &model.PromptOption{UUID: 5000, Provider: "openai", Model: "gpt-4"}
	b := &model.PromptOption{UUID: 5000, Provider: "openai", Model: "gpt-4o", Aiopts: `{"max_tokens":1024}`}
	require.NoError(t, optionSrv.CreateNew(ctx, a))
	require.NoError(t, optionSrv.CreateNew(ctx, b))
	_, err = optionSrv.SetSortno(ctx, a.ID, 5)
	require.NoError(t, err)

	c, err = srv.BuildOnePetCache(ctx, 5000)
	require.NoError(t, err)
	require.Len(t, c.Models, 2)
	assert.True(t, c.Ready)
	assert.Equal(t, "gpt-4o", c.Models[0].Model)
	assert.Equal(t, map[string]interface{}{"max_tokens": float64(1024)}, c.Models[0].AiOpts)

	_, err = srv.SetStatus(ctx, 5000, constant.StatusForbidden)
	require.NoError(t, err)
	c, err = srv.BuildOnePetCache(ctx, 5000)
	require.NoError(t, err)
	assert.False(t, c.Ready)

	_, err = srv.RemoveByID(ctx, 5000)
	require.NoError(t, err)
	c, err = srv.BuildOnePetCache(ctx, 5000)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestGetAllPetCaches(t *testing.T) {
	srv, optionSrv := newTemplateServices(t)
	ctx := testContext(t)

	caches, err := srv.GetAllPetCaches(ctx)
	require.NoError(t, err)
	assert.NotNil(t, caches)
	assert.Empty(t, caches)

	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, srv.CreateNew(ctx, &model.PromptTemplate{Title: title}))
	}
	_, err = srv.SetStatus(ctx, 5000, constant.StatusForbidden)
	require.NoError(t, err)

	for _, o := range []*model.PromptOption{
		{UUID: 5000, Provider: "openai", Model: "gpt-4"},
		{UUID: 5002, Provider: "openai", Model: "gpt-4"},
		{UUID: 5002, Provider: "deepseek", Model: "chat"},
		{UUID: 9000, Provider: "orphan", Model: "x"},
	} {
		require.NoError(t, optionSrv.CreateNew(ctx, o))
	}

	caches, err = srv.GetAllPetCaches(ctx)
	require.NoError(t, err)
	require.Len(t, caches, 3)

	// 正常状态在前，同状态按id升序
	assert.Equal(t, uint64(5001), caches[0].UUID)
	assert.Equal(t, uint64(5002), caches[1].UUID)
	assert.Equal(t, uint64(5000), caches[2].UUID)

	assert.Empty(t, caches[0].Models)
	assert.False(t, caches[0].Ready)

	require.Len(t, caches[1].Models, 2)
	assert.Equal(t, "gpt-4", caches[1].Models[0].Model)
	assert.Equal(t, "chat", caches[1].Models[1].Model)
	assert.True(t, caches[1].Ready)

	require.Len(t, caches[2].Models, 1)
	assert.False(t, caches[2].Ready)

	for _, c := range caches {
		assert.Equal(t, c.Status == constant.StatusNormal && len(c.Models) > 0, c.Ready)
	}
}

func TestCreateNewRetriesOnTakenUUID(t *testing.T) {
	srv, _ := newTemplateServices(t)
	ctx := testContext(t)

	// 在分配之后、插入之前抢占uuid，模拟并发创建
	taken := false
	require.NoError(t, srv.db.Callback().Create().Before("gorm:begin_transaction").Register("test:steal_uuid", func(tx *gorm.DB) {
		tpl, ok := tx.Statement.Dest.(*model.PromptTemplate)
		if !ok || taken {
			return
		}
		taken = true
		tx.Session(&gorm.Session{NewDB: true, SkipHooks: true}).
			Exec("INSERT INTO ai_prompt_template (id, title, sortno, status) VALUES (?, ?, ?, ?)", tpl.ID, "other", 1, constant.StatusNormal)
	}))

	record := &model.PromptTemplate{Title: "mine"}
	require.NoError(t, srv.CreateNew(ctx, record))
	assert.Equal(t, uint64(5001), record.ID)
	assert.True(t, taken)
}
