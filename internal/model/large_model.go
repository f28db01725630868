package model

type LargeModel struct {
	BaseModel
	Modelid        string `json:"modelid" gorm:"type:varchar(200);not null;uniqueIndex"`
	Name           string `json:"name" gorm:"type:varchar(100);not null"`
	Provider       string `json:"provider" gorm:"type:varchar(64);not null;index"`
	Model          string `json:"model" gorm:"type:varchar(100);not null"`
	Version        string `json:"version" gorm:"type:varchar(32)"`
	Classification string `json:"classification" gorm:"type:varchar(64)"`
	BaseURL        string `json:"baseUrl" gorm:"column:base_url;type:varchar(256)"`
	Sortno         int64  `json:"sortno" gorm:"not null;default:0"`
	Status         int    `json:"status" gorm:"not null;default:1"`
	Link           string `json:"link" gorm:"type:varchar(256)"`
	PropertyNames  string `json:"propertyNames" gorm:"type:varchar(512)"`
	Description    string `json:"description" gorm:"type:varchar(1000)"`
	Remark         string `json:"remark" gorm:"type:varchar(512)"`
}

func (*LargeModel) TableName() string {
	return "ai_large_model"
}

func (*LargeModel) TableComment() string {
	return "大模型目录表"
}

func init() {
	models = append(models, &LargeModel{})
}
