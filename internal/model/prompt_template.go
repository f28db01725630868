package model

import (
	"time"

	"gorm.io/gorm"
)

// PromptTemplate 提示词模板(PET)，主键即uuid
type PromptTemplate struct {
	ID             uint64         `json:"uuid" gorm:"primaryKey;autoIncrement:false"`
	Title          string         `json:"title" gorm:"type:varchar(128);not null"`
	Group          string         `json:"group" gorm:"column:pet_group;type:varchar(64);index"`
	Petype         string         `json:"petype" gorm:"type:varchar(32)"`
	Kno            string         `json:"kno" gorm:"type:varchar(64)"`
	SystemMessage  string         `json:"systemMessage" gorm:"type:text"`
	PresetMessages string         `json:"presetMessages" gorm:"type:text"`
	Sortno         int64          `json:"sortno" gorm:"not null;default:0"`
	Status         int            `json:"status" gorm:"not null;default:0"`
	Remark         string         `json:"remark" gorm:"type:varchar(512)"`
	CreatedAt      time.Time      `json:"createdAt,omitzero"`
	UpdatedAt      time.Time      `json:"updatedAt,omitzero"`
	DeletedAt      gorm.DeletedAt `json:"deletedAt" gorm:"index"`

	PresetMessagesJSON []ChatMessage `json:"presetMessagesJson,omitempty" gorm:"-"`
}

func (*PromptTemplate) TableName() string {
	return "ai_prompt_template"
}

func (*PromptTemplate) TableComment() string {
	return "提示词模板表"
}

func (t *PromptTemplate) GetID() uint64 {
	return t.ID
}

func (t *PromptTemplate) AfterFind(tx *gorm.DB) error {
	t.PresetMessagesJSON = ParseChatMessages(t.PresetMessages)
	return nil
}

func init() {
	models = append(models, &PromptTemplate{})
}
