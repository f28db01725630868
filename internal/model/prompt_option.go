package model

import "gorm.io/gorm"

// PromptOption 模板下按模型区分的参数配置，(uuid, provider, model) 唯一
type PromptOption struct {
	BaseModel
	UUID      uint64 `json:"uuid" gorm:"column:uuid;not null;uniqueIndex:po_uuid_model,priority:1"`
	Name      string `json:"name" gorm:"type:varchar(100)"`
	Modelid   string `json:"modelid" gorm:"type:varchar(200)"`
	Provider  string `json:"provider" gorm:"type:varchar(64);not null;uniqueIndex:po_uuid_model,priority:2"`
	Model     string `json:"model" gorm:"type:varchar(100);not null;uniqueIndex:po_uuid_model,priority:3"`
	Aiopts    string `json:"aiopts" gorm:"type:text"`
	IsDefault bool   `json:"isDefault" gorm:"not null;default:false"`
	Sortno    int64  `json:"sortno" gorm:"not null;default:0"`
	Status    int    `json:"status" gorm:"not null;default:0"`
	Remark    string `json:"remark" gorm:"type:varchar(512)"`

	AiOptsJSON interface{} `json:"aiOptsJson,omitempty" gorm:"-"`
}

func (*PromptOption) TableName() string {
	return "ai_prompt_options"
}

func (*PromptOption) TableComment() string {
	return "提示词模板模型参数表"
}

func (o *PromptOption) AfterFind(tx *gorm.DB) error {
	o.AiOptsJSON = ParseJSON(o.Aiopts)
	return nil
}

func init() {
	models = append(models, &PromptOption{})
}
