package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yockii/knorm/internal/constant"
	"github.com/yockii/knorm/internal/metrics"
	"github.com/yockii/knorm/internal/model"
	"github.com/yockii/knorm/pkg/logger"
	"github.com/yockii/knorm/pkg/util"
	"gorm.io/gorm"
)

type KnowledgeBaseQuery struct {
	PageQuery
	Group     string `json:"group" query:"group"`
	Available *bool  `json:"available" query:"available"`
}

type knowledgeBaseService struct {
	*BaseService[*model.KnowledgeBase]
}

func NewKnowledgeBaseService(db *gorm.DB) *knowledgeBaseService {
	return &knowledgeBaseService{
		NewBaseService[*model.KnowledgeBase](db, metrics.EntityKnowledgeBase),
	}
}

func (s *knowledgeBaseService) Pagination(ctx context.Context, condition *KnowledgeBaseQuery) (*PageResult[*model.KnowledgeBase], error) {
	if condition == nil {
		condition = &KnowledgeBaseQuery{}
	}
	query := s.db.WithContext(ctx)
	if condition.Group != "" {
		query = query.Where("kn_group = ?", condition.Group)
	}
	if condition.Available != nil {
		query = query.Where("available = ?", *condition.Available)
	}
	query = keywordsCondition(query, condition.Keywords,
		contains("title"),
		prefix("kno"),
		contains("tag"),
	)
	return s.paginate(query, condition.PageQuery, "id")
}

func (s *knowledgeBaseService) GetByKno(ctx context.Context, kno string) (*model.KnowledgeBase, error) {
	record := &model.KnowledgeBase{}
	if err := s.db.WithContext(ctx).Where("kno = ?", kno).First(record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 知识库[%s]", constant.ErrRecordNotFound, kno)
		}
		logger.Error("查询知识库失败", logger.F("kno", kno), logger.F("error", err))
		return nil, err
	}
	return record, nil
}

func (s *knowledgeBaseService) GenerateKno() string {
	return util.NewKno()
}

// fillKnowledgeBaseText 结构化字段优先于原始文本
func fillKnowledgeBaseText(record *model.KnowledgeBase) error {
	if record.ExtraJSON != nil {
		text, err := model.ToJSONText(record.ExtraJSON)
		if err != nil {
			return fmt.Errorf("%w: %v", constant.ErrSerializeError, err)
		}
		record.Extra = text
	}
	if record.CrawlerRuleJSON != nil {
		text, err := model.ToJSONText(record.CrawlerRuleJSON)
		if err != nil {
			return fmt.Errorf("%w: %v", constant.ErrSerializeError, err)
		}
		record.CrawRules = text
	}
	return nil
}

func (s *knowledgeBaseService) CreateNew(ctx context.Context, record *model.KnowledgeBase) error {
	record.Title = strings.TrimSpace(record.Title)
	if record.Title == "" {
		return fmt.Errorf("%w: 标题不能为空", constant.ErrInvalidParams)
	}
	if err := fillKnowledgeBaseText(record); err != nil {
		return err
	}
	record.ID = 0
	record.Kno = s.GenerateKno()
	record.Available = false

	if err := s.create(ctx, record, fmt.Sprintf("知识库[%s]已存在", record.Kno)); err != nil {
		return err
	}
	record.ExtraJSON = model.ParseJSON(record.Extra)
	record.CrawlerRuleJSON = model.ParseJSON(record.CrawRules)
	return nil
}

// UpdateSome 整体替换可编辑字段
func (s *knowledgeBaseService) UpdateSome(ctx context.Context, record *model.KnowledgeBase) (*model.KnowledgeBase, error) {
	record.Title = strings.TrimSpace(record.Title)
	if record.Title == "" {
		return nil, fmt.Errorf("%w: 标题不能为空", constant.ErrInvalidParams)
	}
	existing, err := s.GetByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	if err := fillKnowledgeBaseText(record); err != nil {
		return nil, err
	}

	existing.Title = record.Title
	existing.Group = record.Group
	existing.Tag = record.Tag
	existing.Extra = record.Extra
	existing.CrawRules = record.CrawRules
	existing.Remark = record.Remark

	if err := s.db.WithContext(ctx).Model(existing).
		Select("title", "kn_group", "tag", "extra", "craw_rules", "remark").
		Updates(existing).Error; err != nil {
		logger.Error("更新知识库失败", logger.F("id", existing.ID), logger.F("error", err))
		return nil, err
	}
	existing.ExtraJSON = model.ParseJSON(existing.Extra)
	existing.CrawlerRuleJSON = model.ParseJSON(existing.CrawRules)
	return existing, nil
}

func (s *knowledgeBaseService) SetAvailable(ctx context.Context, id uint64, available bool) (bool, error) {
	return s.updateColumn(ctx, id, "available", available)
}
