package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/yockii/knorm/internal/constant"
	"github.com/yockii/knorm/internal/metrics"
	"github.com/yockii/knorm/internal/model"
	"github.com/yockii/knorm/pkg/logger"
	"gorm.io/gorm"
)

type LargeModelQuery struct {
	PageQuery
	Provider string `json:"provider" query:"provider"`
}

// SelectOption 下拉选项
type SelectOption struct {
	Label    string           `json:"label"`
	Value    string           `json:"value"`
	Disabled bool             `json:"disabled"`
	Actived  bool             `json:"actived"`
	Extra    *LargeModelExtra `json:"extra"`
}

type LargeModelExtra struct {
	ID             uint64 `json:"id,string"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	BaseURL        string `json:"baseUrl"`
	Link           string `json:"link"`
	Version        string `json:"version"`
	Classification string `json:"classification"`
}

// BuildModelid 生成 provider@model 形式的 modelid
func BuildModelid(provider, modelName string) string {
	return provider + "@" + modelName
}

type largeModelService struct {
	*BaseService[*model.LargeModel]
}

func NewLargeModelService(db *gorm.DB) *largeModelService {
	return &largeModelService{
		NewBaseService[*model.LargeModel](db, metrics.EntityLargeModel),
	}
}

func (s *largeModelService) Pagination(ctx context.Context, condition *LargeModelQuery) (*PageResult[*model.LargeModel], error) {
	if condition == nil {
		condition = &LargeModelQuery{}
	}
	query := s.db.WithContext(ctx)
	if condition.Provider != "" {
		query = query.Where("provider = ?", condition.Provider)
	}
	query = keywordsCondition(query, condition.Keywords,
		contains("name"),
		contains("model"),
		contains("modelid"),
	)
	return s.paginate(query, condition.PageQuery, "sortno", "provider", "id")
}

// FindByModelid 不存在时返回nil
func (s *largeModelService) FindByModelid(ctx context.Context, modelid string) (*model.LargeModel, error) {
	record := &model.LargeModel{}
	if err := s.db.WithContext(ctx).Where("modelid = ?", modelid).First(record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error("查询模型失败", logger.F("modelid", modelid), logger.F("error", err))
		return nil, err
	}
	return record, nil
}

func (s *largeModelService) Create(ctx context.Context, record *model.LargeModel) error {
	record.Provider = strings.TrimSpace(record.Provider)
	record.Model = strings.TrimSpace(record.Model)
	if record.Provider == "" || record.Model == "" {
		return fmt.Errorf("%w: provider和model不能为空", constant.ErrInvalidParams)
	}
	if record.Modelid == "" {
		record.Modelid = BuildModelid(record.Provider, record.Model)
	}
	if record.Name == "" {
		record.Name = record.Model
	}
	if record.Status == 0 {
		record.Status = constant.StatusNormal
	}

	exists, err := s.FindByModelid(ctx, record.Modelid)
	if err != nil {
		return err
	}
	if exists != nil {
		return s.conflict(fmt.Sprintf("模型[%s]已存在", record.Modelid))
	}

	record.ID = 0
	return s.create(ctx, record, fmt.Sprintf("模型[%s]已存在", record.Modelid))
}

// Update 只更新传入的非零字段
func (s *largeModelService) Update(ctx context.Context, record *model.LargeModel) (*model.LargeModel, error) {
	existing, err := s.GetByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	// 修改了provider或model但未指定modelid时重新生成
	if record.Modelid == "" && (record.Provider != "" || record.Model != "") {
		record.Modelid = BuildModelid(
			lo.Ternary(record.Provider != "", record.Provider, existing.Provider),
			lo.Ternary(record.Model != "", record.Model, existing.Model),
		)
	}

	if record.Modelid != "" && record.Modelid != existing.Modelid {
		repeat, err := s.exists(s.db.WithContext(ctx).Where("modelid = ? AND id <> ?", record.Modelid, record.ID))
		if err != nil {
			return nil, err
		}
		if repeat {
			return nil, s.conflict(fmt.Sprintf("模型[%s]已存在", record.Modelid))
		}
	}

	if err := s.db.WithContext(ctx).Model(existing).Omit("id", "created_at").Updates(record).Error; err != nil {
		if isDuplicateError(err) {
			return nil, s.conflict(fmt.Sprintf("模型[%s]已存在", record.Modelid))
		}
		logger.Error("更新模型失败", logger.F("id", record.ID), logger.F("error", err))
		return nil, err
	}
	return s.GetByID(ctx, record.ID)
}

func (s *largeModelService) SetSortno(ctx context.Context, id uint64, sortno int64) (bool, error) {
	return s.updateColumn(ctx, id, "sortno", sortno)
}

func (s *largeModelService) SetStatus(ctx context.Context, id uint64, status int) (bool, error) {
	return s.updateColumn(ctx, id, "status", status)
}

// GetSelection 模型下拉选项，provider 为空时返回全部
func (s *largeModelService) GetSelection(ctx context.Context, provider string) ([]*SelectOption, error) {
	query := s.db.WithContext(ctx).Model(&model.LargeModel{})
	if provider != "" {
		query = query.Where("provider = ?", provider)
	}
	var list []*model.LargeModel
	if err := query.Order("provider").Order("sortno").Order("id").Find(&list).Error; err != nil {
		logger.Error("查询模型列表失败", logger.F("error", err))
		return nil, err
	}

	options := make([]*SelectOption, 0, len(list))
	for _, m := range list {
		options = append(options, &SelectOption{
			Label:    m.Name,
			Value:    m.Modelid,
			Disabled: m.Status != constant.StatusNormal,
			Extra: &LargeModelExtra{
				ID:             m.ID,
				Provider:       m.Provider,
				Model:          m.Model,
				BaseURL:        m.BaseURL,
				Link:           m.Link,
				Version:        m.Version,
				Classification: m.Classification,
			},
		})
	}
	return options, nil
}
