package model

import (
	"github.com/samber/lo"
	"github.com/yockii/knorm/internal/constant"
)

// PetCache 模板及其模型参数的反范式缓存
type PetCache struct {
	UUID           uint64              `json:"uuid"`
	Title          string              `json:"title"`
	Group          string              `json:"group"`
	Petype         string              `json:"petype"`
	Kno            string              `json:"kno"`
	SystemMessage  string              `json:"systemMessage"`
	Status         int                 `json:"status"`
	PresetMessages []ChatMessage       `json:"presetMessages"`
	Models         []*ModelOptionCache `json:"models"`
	Ready          bool                `json:"ready"`
}

type ModelOptionCache struct {
	ID        uint64      `json:"id,string"`
	UUID      uint64      `json:"uuid"`
	Name      string      `json:"name"`
	Model     string      `json:"model"`
	Modelid   string      `json:"modelid"`
	Provider  string      `json:"provider"`
	IsDefault bool        `json:"isDefault"`
	Sortno    int64       `json:"sortno"`
	Status    int         `json:"status"`
	AiOpts    interface{} `json:"aiOpts"`
}

func NewModelOptionCache(o *PromptOption) *ModelOptionCache {
	return &ModelOptionCache{
		ID:        o.ID,
		UUID:      o.UUID,
		Name:      o.Name,
		Model:     o.Model,
		Modelid:   o.Modelid,
		Provider:  o.Provider,
		IsDefault: o.IsDefault,
		Sortno:    o.Sortno,
		Status:    o.Status,
		AiOpts:    ParseJSON(o.Aiopts),
	}
}

// NewPetCache 组装缓存，options 需已按 sortno 排序
func NewPetCache(t *PromptTemplate, options []*PromptOption) *PetCache {
	c := &PetCache{
		UUID:           t.ID,
		Title:          t.Title,
		Group:          t.Group,
		Petype:         t.Petype,
		Kno:            t.Kno,
		SystemMessage:  t.SystemMessage,
		Status:         t.Status,
		PresetMessages: ParseChatMessages(t.PresetMessages),
		Models: lo.Map(options, func(o *PromptOption, _ int) *ModelOptionCache {
			return NewModelOptionCache(o)
		}),
	}
	c.Ready = c.IsReady()
	return c
}

// IsReady 状态正常且至少有一个模型
func (c *PetCache) IsReady() bool {
	return c.Status == constant.StatusNormal && len(c.Models) > 0
}
