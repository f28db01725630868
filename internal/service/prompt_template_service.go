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

// uuid 被并发占用时的最大尝试次数
const createRetryTimes = 3

type PromptTemplateQuery struct {
	PageQuery
	Group          string `json:"group" query:"group"`
	Petype         string `json:"petype" query:"petype"`
	Kno            string `json:"kno" query:"kno"`
	Status         *int   `json:"status" query:"status"`
	IncludeDeleted bool   `json:"includeDeleted" query:"includeDeleted"`
}

type promptTemplateService struct {
	*BaseService[*model.PromptTemplate]
	optionSrv PromptOptionService
}

func NewPromptTemplateService(db *gorm.DB, optionSrv PromptOptionService) *promptTemplateService {
	return &promptTemplateService{
		BaseService: NewBaseService[*model.PromptTemplate](db, metrics.EntityTemplate),
		optionSrv:   optionSrv,
	}
}

func (s *promptTemplateService) Pagination(ctx context.Context, condition *PromptTemplateQuery) (*PageResult[*model.PromptTemplate], error) {
	if condition == nil {
		condition = &PromptTemplateQuery{}
	}
	query := s.db.WithContext(ctx)
	if condition.IncludeDeleted {
		query = query.Unscoped()
	}
	if condition.Group != "" {
		query = query.Where("pet_group = ?", condition.Group)
	}
	if condition.Petype != "" {
		query = query.Where("petype = ?", condition.Petype)
	}
	if condition.Kno != "" {
		query = query.Where("kno = ?", condition.Kno)
	}
	if condition.Status != nil {
		query = query.Where("status = ?", *condition.Status)
	}
	query = keywordsCondition(query, condition.Keywords,
		contains("title"),
		prefix("kno"),
		contains("remark"),
	)
	return s.paginate(query, condition.PageQuery, "sortno", "id")
}

// GetWithDeleted 包含已软删除的记录
func (s *promptTemplateService) GetWithDeleted(ctx context.Context, id uint64) (*model.PromptTemplate, error) {
	record := &model.PromptTemplate{}
	if err := s.db.WithContext(ctx).Unscoped().First(record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 模板[%d]", constant.ErrRecordNotFound, id)
		}
		logger.Error("查询模板失败", logger.F("id", id), logger.F("error", err))
		return nil, err
	}
	return record, nil
}

// NextUUID 已软删除的记录也占用uuid
func (s *promptTemplateService) NextUUID(ctx context.Context) (uint64, error) {
	v, err := s.nextValue(s.db.WithContext(ctx).Unscoped(), "id", constant.StartUUID)
	if err != nil {
		return 0, err
	}
	return uint64(v), nil
}

func (s *promptTemplateService) NextSortno(ctx context.Context) (int64, error) {
	return s.nextValue(s.db.WithContext(ctx), "sortno", constant.StartSortno)
}

func (s *promptTemplateService) CreateNew(ctx context.Context, record *model.PromptTemplate) error {
	record.Title = strings.TrimSpace(record.Title)
	if record.Title == "" {
		return fmt.Errorf("%w: 标题不能为空", constant.ErrInvalidParams)
	}
	if record.PresetMessages == "" && record.PresetMessagesJSON != nil {
		text, err := model.ToJSONText(record.PresetMessagesJSON)
		if err != nil {
			return fmt.Errorf("%w: %v", constant.ErrSerializeError, err)
		}
		record.PresetMessages = text
	}
	record.Status = constant.StatusNormal

	for i := 0; i < createRetryTimes; i++ {
		uuid, err := s.NextUUID(ctx)
		if err != nil {
			return err
		}
		sortno, err := s.NextSortno(ctx)
		if err != nil {
			return err
		}
		record.ID = uuid
		record.Sortno = sortno

		err = s.db.WithContext(ctx).Create(record).Error
		if err == nil {
			record.PresetMessagesJSON = model.ParseChatMessages(record.PresetMessages)
			return nil
		}
		if !isDuplicateError(err) {
			logger.Error("创建模板失败", logger.F("error", err))
			return err
		}
		logger.Warn("模板uuid被占用，重新分配", logger.F("uuid", uuid), logger.F("attempt", i+1))
	}
	return s.conflict(fmt.Sprintf("模板[%d]uuid分配失败", record.ID))
}

// UpdateSome 只更新传入的非零内容字段
func (s *promptTemplateService) UpdateSome(ctx context.Context, record *model.PromptTemplate) (bool, error) {
	if record.ID == 0 {
		return false, constant.ErrRecordIDEmpty
	}
	if record.PresetMessages == "" && record.PresetMessagesJSON != nil {
		text, err := model.ToJSONText(record.PresetMessagesJSON)
		if err != nil {
			return false, fmt.Errorf("%w: %v", constant.ErrSerializeError, err)
		}
		record.PresetMessages = text
	}
	result := s.db.WithContext(ctx).Model(&model.PromptTemplate{}).
		Where("id = ?", record.ID).
		Omit("id", "sortno", "status", "created_at", "deleted_at").
		Updates(record)
	if result.Error != nil {
		logger.Error("更新模板失败", logger.F("id", record.ID), logger.F("error", result.Error))
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *promptTemplateService) SetStatus(ctx context.Context, id uint64, status int) (bool, error) {
	return s.updateColumn(ctx, id, "status", status)
}

func (s *promptTemplateService) SetSortno(ctx context.Context, id uint64, sortno int64) (bool, error) {
	return s.updateColumn(ctx, id, "sortno", sortno)
}

// RemoveByID 软删除
func (s *promptTemplateService) RemoveByID(ctx context.Context, id uint64) (bool, error) {
	if id == 0 {
		return false, constant.ErrRecordIDEmpty
	}
	result := s.db.WithContext(ctx).Delete(&model.PromptTemplate{}, "id = ?", id)
	if result.Error != nil {
		logger.Error("删除模板失败", logger.F("id", id), logger.F("error", result.Error))
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// BuildOnePetCache 模板不存在时返回nil
func (s *promptTemplateService) BuildOnePetCache(ctx context.Context, uuid uint64) (*model.PetCache, error) {
	template := &model.PromptTemplate{}
	if err := s.db.WithContext(ctx).First(template, "id = ?", uuid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error("查询模板失败", logger.F("uuid", uuid), logger.F("error", err))
		return nil, err
	}

	options, err := s.optionSrv.GetTemplateOptions(ctx, uuid)
	if err != nil {
		return nil, err
	}
	metrics.PetCacheBuildTotal.WithLabelValues(metrics.BuildModeOne).Inc()
	return model.NewPetCache(template, options), nil
}

// GetAllPetCaches 正常状态优先，最多 MaxCacheLimit 条
func (s *promptTemplateService) GetAllPetCaches(ctx context.Context) ([]*model.PetCache, error) {
	var templates []*model.PromptTemplate
	if err := s.db.WithContext(ctx).
		Order("status DESC").Order("id ASC").
		Limit(constant.MaxCacheLimit).
		Find(&templates).Error; err != nil {
		logger.Error("查询模板列表失败", logger.F("error", err))
		return nil, err
	}
	metrics.PetCacheBuildTotal.WithLabelValues(metrics.BuildModeAll).Inc()
	if len(templates) == 0 {
		metrics.PetCacheReady.Set(0)
		return make([]*model.PetCache, 0), nil
	}
	if len(templates) >= constant.MaxCacheLimit {
		metrics.PetCacheTruncatedTotal.Inc()
		logger.Warn("模板数量达到缓存上限，超出部分未构建", logger.F("limit", constant.MaxCacheLimit))
	}

	uuids := lo.Map(templates, func(t *model.PromptTemplate, _ int) uint64 {
		return t.ID
	})
	options, err := s.optionSrv.GetTemplateOptions(ctx, uuids...)
	if err != nil {
		return nil, err
	}
	grouped := lo.GroupBy(options, func(o *model.PromptOption) uint64 {
		return o.UUID
	})

	caches := lo.Map(templates, func(t *model.PromptTemplate, _ int) *model.PetCache {
		return model.NewPetCache(t, grouped[t.ID])
	})
	metrics.PetCacheReady.Set(float64(lo.CountBy(caches, func(c *model.PetCache) bool {
		return c.Ready
	})))
	return caches, nil
}
