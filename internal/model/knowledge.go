package model

import (
	"strings"

	"github.com/samber/lo"
	"github.com/yockii/knorm/internal/constant"
	"gorm.io/gorm"
)

// KeywordSeparator 资源关键词分隔符
const KeywordSeparator = "|"

type KnowledgeBase struct {
	BaseModel
	Kno       string `json:"kno" gorm:"type:varchar(64);not null;uniqueIndex"`
	Title     string `json:"title" gorm:"type:varchar(64);not null"`
	Available bool   `json:"available" gorm:"not null;default:false"`
	Group     string `json:"group" gorm:"column:kn_group;type:varchar(64);index"`
	Tag       string `json:"tag" gorm:"type:varchar(1000)"`
	Extra     string `json:"extra" gorm:"type:text"`
	CrawRules string `json:"crawRules" gorm:"column:craw_rules;type:text"`
	Remark    string `json:"remark" gorm:"type:varchar(512)"`

	ExtraJSON       interface{} `json:"extraJson,omitempty" gorm:"-"`
	CrawlerRuleJSON interface{} `json:"crawlerRuleJson,omitempty" gorm:"-"`
}

func (*KnowledgeBase) TableName() string {
	return "ai_kn_base"
}

func (*KnowledgeBase) TableComment() string {
	return "知识库表"
}

func (k *KnowledgeBase) AfterFind(tx *gorm.DB) error {
	k.ExtraJSON = ParseJSON(k.Extra)
	k.CrawlerRuleJSON = ParseJSON(k.CrawRules)
	return nil
}

type KnowledgeResource struct {
	BaseModel
	Kno      string `json:"kno" gorm:"type:varchar(64);not null;index"`
	Filename string `json:"filename" gorm:"type:varchar(200)"`
	EntryURL string `json:"entryUrl" gorm:"column:entry_url;type:varchar(256)"`
	SubURL   string `json:"subUrl" gorm:"column:sub_url;type:text"`
	Keywords string `json:"keywords" gorm:"type:varchar(512)"`
	MdPaths  string `json:"mdPaths" gorm:"column:md_paths;type:text"`
	Mddir    string `json:"mddir" gorm:"type:varchar(256)"`
	MdFile   string `json:"mdFile" gorm:"column:md_file;type:varchar(256)"`
	State    string `json:"state" gorm:"type:varchar(16);not null;default:'empty';index"`
	Crawler  string `json:"crawler" gorm:"type:varchar(64)"`
	OssExtra string `json:"ossExtra" gorm:"column:oss_extra;type:text"`
	Remark   string `json:"remark" gorm:"type:varchar(512)"`

	OssInfo interface{} `json:"ossInfo,omitempty" gorm:"-"`
	Ready   bool        `json:"ready" gorm:"-"`
}

func (*KnowledgeResource) TableName() string {
	return "ai_kn_resource"
}

func (*KnowledgeResource) TableComment() string {
	return "知识库资源表"
}

func (r *KnowledgeResource) AfterFind(tx *gorm.DB) error {
	r.OssInfo = ParseJSON(r.OssExtra)
	r.Ready = r.State == constant.KnStateReady
	return nil
}

// KeywordList 拆分关键词
func (r *KnowledgeResource) KeywordList() []string {
	return lo.Compact(lo.Map(strings.Split(r.Keywords, KeywordSeparator), func(k string, _ int) string {
		return strings.TrimSpace(k)
	}))
}

// JoinKeywords 合并关键词
func JoinKeywords(keywords []string) string {
	return strings.Join(lo.Uniq(lo.Compact(keywords)), KeywordSeparator)
}

func init() {
	models = append(models, &KnowledgeBase{}, &KnowledgeResource{})
}
