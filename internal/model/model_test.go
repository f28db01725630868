package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yockii/knorm/internal/constant"
)

func TestParseJSON(t *testing.T) {
	assert.Nil(t, ParseJSON(""))
	assert.Nil(t, ParseJSON("{bad json"))

	v := ParseJSON(`{"depth":2,"tags":["a","b"]}`)
	obj, ok := v.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), obj["depth"])
	assert.Equal(t, []interface{}{"a", "b"}, obj["tags"])

	assert.Equal(t, []interface{}{float64(1), float64(2)}, ParseJSON(`[1,2]`))
}

func TestParseChatMessages(t *testing.T) {
	assert.Nil(t, ParseChatMessages(""))
	assert.Nil(t, ParseChatMessages("not json"))
	assert.Nil(t, ParseChatMessages(`{"role":"user"}`))
	assert.Equal(t, []ChatMessage{}, ParseChatMessages(`[]`))

	msgs := ParseChatMessages(`[{"role":"user","content":"hi"},3,{"role":"assistant","content":"hello"}]`)
	assert.Equal(t, []ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}, msgs)

	// 多模态内容保持原始结构
	msgs = ParseChatMessages(`[{"role":"user","content":[{"type":"text","text":"看图"},{"type":"image_url","image_url":{"url":"https://x/a.png"}}]}]`)
	require.Len(t, msgs, 1)
	parts, ok := msgs[0].Content.([]interface{})
	require.True(t, ok)
	require.Len(t, parts, 2)
	assert.Equal(t, "看图", parts[0].(map[string]interface{})["text"])
	assert.Equal(t, map[string]interface{}{"url": "https://x/a.png"}, parts[1].(map[string]interface{})["image_url"])

	text, err := ToJSONText(msgs)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"user","content":[{"type":"text","text":"看图"},{"type":"image_url","image_url":{"url":"https://x/a.png"}}]}]`, text)
}

func TestToJSONText(t *testing.T) {
	s, err := ToJSONText(nil)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	s, err = ToJSONText(`{"raw":true}`)
	require.NoError(t, err)
	assert.Equal(t, `{"raw":true}`, s)

	s, err = ToJSONText(map[string]interface{}{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, s)

	_, err = ToJSONText(make(chan int))
	assert.Error(t, err)
}

func TestNewPetCache(t *testing.T) {
	tpl := &PromptTemplate{
		ID:             5000,
		Title:          "翻译",
		Status:         constant.StatusNormal,
		PresetMessages: `[{"role":"system","content":"x"}]`,
	}

	c := NewPetCache(tpl, nil)
	assert.NotNil(t, c.Models)
	assert.Empty(t, c.Models)
	assert.False(t, c.Ready)
	assert.Len(t, c.PresetMessages, 1)

	options := []*PromptOption{
		{BaseModel: BaseModel{ID: 1}, UUID: 5000, Provider: "openai", Model: "gpt-4", Sortno: 1, Aiopts: `{"temperature":0.2}`},
		{BaseModel: BaseModel{ID: 2}, UUID: 5000, Provider: "openai", Model: "gpt-4o", Sortno: 2, Aiopts: `oops`},
	}
	c = NewPetCache(tpl, options)
	require.Len(t, c.Models, 2)
	assert.True(t, c.Ready)
	assert.Equal(t, map[string]interface{}{"temperature": 0.2}, c.Models[0].AiOpts)
	assert.Nil(t, c.Models[1].AiOpts)

	// 非对象的合法JSON参数同样保留
	options[1].Aiopts = `[{"stop":"###"}]`
	c = NewPetCache(tpl, options)
	assert.Equal(t, []interface{}{map[string]interface{}{"stop": "###"}}, c.Models[1].AiOpts)

	tpl.Status = constant.StatusForbidden
	assert.False(t, NewPetCache(tpl, options).Ready)
}

func TestKeywordList(t *testing.T) {
	r := &KnowledgeResource{Keywords: "go| gorm ||redis"}
	assert.Equal(t, []string{"go", "gorm", "redis"}, r.KeywordList())
	assert.Equal(t, "go|gorm", JoinKeywords([]string{"go", "", "gorm", "go"}))
}

func TestAfterFindProjections(t *testing.T) {
	r := &KnowledgeResource{State: constant.KnStateReady, OssExtra: `{"bucket":"b"}`}
	require.NoError(t, r.AfterFind(nil))
	assert.True(t, r.Ready)
	assert.Equal(t, map[string]interface{}{"bucket": "b"}, r.OssInfo)

	k := &KnowledgeBase{Extra: `{"a":1}`, CrawRules: `broken`}
	require.NoError(t, k.AfterFind(nil))
	assert.Equal(t, map[string]interface{}{"a": float64(1)}, k.ExtraJSON)
	assert.Nil(t, k.CrawlerRuleJSON)
}
