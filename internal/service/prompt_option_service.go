package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yockii/knorm/internal/constant"
	"github.com/yockii/knorm/internal/metrics"
	"github.com/yockii/knorm/internal/model"
	"github.com/yockii/knorm/pkg/logger"
	"gorm.io/gorm"
)

type PromptOptionQuery struct {
	PageQuery
	UUID uint64 `json:"uuid" query:"uuid"`
}

type promptOptionService struct {
	*BaseService[*model.PromptOption]
}

func NewPromptOptionService(db *gorm.DB) *promptOptionService {
	return &promptOptionService{
		NewBaseService[*model.PromptOption](db, metrics.EntityPromptOption),
	}
}

func optionConflictKey(uuid uint64, provider, modelName string) string {
	return fmt.Sprintf("模板[%d]下已存在模型参数 %s/%s", uuid, provider, modelName)
}

func (s *promptOptionService) Pagination(ctx context.Context, condition *PromptOptionQuery) (*PageResult[*model.PromptOption], error) {
	if condition == nil {
		condition = &PromptOptionQuery{}
	}
	query := s.db.WithContext(ctx)
	if condition.UUID != 0 {
		query = query.Where("uuid = ?", condition.UUID)
	}
	rules := []keywordRule{
		contains("provider"),
		contains("model"),
		prefix("modelid"),
	}
	if n, err := strconv.ParseUint(strings.TrimSpace(condition.Keywords), 10, 64); err == nil {
		rules = append(rules, equal("uuid", n))
	}
	query = keywordsCondition(query, condition.Keywords, rules...)
	return s.paginate(query, condition.PageQuery, "uuid", "sortno", "id")
}

// GetTemplateOptions 按 uuid、sortno 排序返回多个模板的模型参数
func (s *promptOptionService) GetTemplateOptions(ctx context.Context, uuids ...uint64) ([]*model.PromptOption, error) {
	list := make([]*model.PromptOption, 0)
	if len(uuids) == 0 {
		return list, nil
	}
	query := s.db.WithContext(ctx)
	if len(uuids) == 1 {
		query = query.Where("uuid = ?", uuids[0])
	} else {
		query = query.Where("uuid IN ?", uuids)
	}
	if err := query.Order("uuid").Order("sortno").Order("id").Find(&list).Error; err != nil {
		logger.Error("查询模板模型参数失败", logger.F("error", err))
		return nil, err
	}
	return list, nil
}

// FindExists 不存在时返回nil
func (s *promptOptionService) FindExists(ctx context.Context, uuid uint64, provider, modelName string) (*model.PromptOption, error) {
	return s.findOne(s.db.WithContext(ctx).Where("uuid = ? AND provider = ? AND model = ?", uuid, provider, modelName))
}

// FindRepeat 查找占用同一 (uuid, provider, model) 的其他记录
func (s *promptOptionService) FindRepeat(ctx context.Context, id, uuid uint64, provider, modelName string) (*model.PromptOption, error) {
	return s.findOne(s.db.WithContext(ctx).Where("uuid = ? AND provider = ? AND model = ? AND id <> ?", uuid, provider, modelName, id))
}

func (s *promptOptionService) findOne(query *gorm.DB) (*model.PromptOption, error) {
	record := &model.PromptOption{}
	if err := query.First(record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error("查询模型参数失败", logger.F("error", err))
		return nil, err
	}
	return record, nil
}

func (s *promptOptionService) NextSortno(ctx context.Context, uuid uint64) (int64, error) {
	return s.nextValue(s.db.WithContext(ctx).Where("uuid = ?", uuid), "sortno", constant.StartSortno)
}

func (s *promptOptionService) CreateNew(ctx context.Context, record *model.PromptOption) error {
	record.Provider = strings.TrimSpace(record.Provider)
	record.Model = strings.TrimSpace(record.Model)
	if record.UUID == 0 || record.Provider == "" || record.Model == "" {
		return fmt.Errorf("%w: uuid、provider和model不能为空", constant.ErrInvalidParams)
	}

	exists, err := s.FindExists(ctx, record.UUID, record.Provider, record.Model)
	if err != nil {
		return err
	}
	if exists != nil {
		return s.conflict(optionConflictKey(record.UUID, record.Provider, record.Model))
	}

	sortno, err := s.NextSortno(ctx, record.UUID)
	if err != nil {
		return err
	}
	if record.Name == "" {
		record.Name = record.Model
	}
	if record.Modelid == "" {
		record.Modelid = BuildModelid(record.Provider, record.Model)
	}
	record.ID = 0
	record.Sortno = sortno
	record.IsDefault = false
	record.Status = constant.StatusNormal

	if err := s.create(ctx, record, optionConflictKey(record.UUID, record.Provider, record.Model)); err != nil {
		return err
	}
	record.AiOptsJSON = model.ParseJSON(record.Aiopts)
	return nil
}

// UpdateSome 合并传入的非空字段，isDefault/status/sortno 由专用方法修改
func (s *promptOptionService) UpdateSome(ctx context.Context, record *model.PromptOption) (*model.PromptOption, error) {
	existing, err := s.GetByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	if record.UUID != 0 {
		existing.UUID = record.UUID
	}
	if record.Provider != "" {
		existing.Provider = strings.TrimSpace(record.Provider)
	}
	if record.Model != "" {
		existing.Model = strings.TrimSpace(record.Model)
	}
	if record.Name != "" {
		existing.Name = record.Name
	}
	if record.Modelid != "" {
		existing.Modelid = record.Modelid
	} else if record.Provider != "" || record.Model != "" {
		existing.Modelid = BuildModelid(existing.Provider, existing.Model)
	}
	if record.Aiopts != "" {
		existing.Aiopts = record.Aiopts
	} else if record.AiOptsJSON != nil {
		text, err := model.ToJSONText(record.AiOptsJSON)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", constant.ErrSerializeError, err)
		}
		existing.Aiopts = text
	}
	if record.Remark != "" {
		existing.Remark = record.Remark
	}

	repeat, err := s.FindRepeat(ctx, existing.ID, existing.UUID, existing.Provider, existing.Model)
	if err != nil {
		return nil, err
	}
	if repeat != nil {
		return nil, s.conflict(optionConflictKey(existing.UUID, existing.Provider, existing.Model))
	}

	if err := s.db.WithContext(ctx).Model(existing).
		Select("uuid", "name", "modelid", "provider", "model", "aiopts", "remark").
		Updates(existing).Error; err != nil {
		if isDuplicateError(err) {
			return nil, s.conflict(optionConflictKey(existing.UUID, existing.Provider, existing.Model))
		}
		logger.Error("更新模型参数失败", logger.F("id", existing.ID), logger.F("error", err))
		return nil, err
	}
	existing.AiOptsJSON = model.ParseJSON(existing.Aiopts)
	return existing, nil
}

// SetDefault 同一事务内先清除同模板其他记录的默认标记，再设置目标记录
func (s *promptOptionService) SetDefault(ctx context.Context, id uint64) (bool, error) {
	if id == 0 {
		return false, constant.ErrRecordIDEmpty
	}
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target := &model.PromptOption{}
		if err := tx.Select("id", "uuid").First(target, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.PromptOption{}).
			Where("uuid = ? AND id <> ? AND is_default = ?", target.UUID, id, true).
			Update("is_default", false).Error; err != nil {
			return err
		}
		result := tx.Model(&model.PromptOption{}).Where("id = ?", id).Update("is_default", true)
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		logger.Error("设置默认模型参数失败", logger.F("id", id), logger.F("error", err))
		return false, err
	}
	return affected > 0, nil
}

func (s *promptOptionService) SetStatus(ctx context.Context, id uint64, status int) (bool, error) {
	return s.updateColumn(ctx, id, "status", status)
}

func (s *promptOptionService) SetSortno(ctx context.Context, id uint64, sortno int64) (bool, error) {
	return s.updateColumn(ctx, id, "sortno", sortno)
}
