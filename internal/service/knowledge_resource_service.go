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

type KnowledgeResourceQuery struct {
	PageQuery
	Kno   string `json:"kno" query:"kno"`
	State string `json:"state" query:"state"`
}

type knowledgeResourceService struct {
	*BaseService[*model.KnowledgeResource]
}

func NewKnowledgeResourceService(db *gorm.DB) *knowledgeResourceService {
	return &knowledgeResourceService{
		NewBaseService[*model.KnowledgeResource](db, metrics.EntityKnowledgeRes),
	}
}

func (s *knowledgeResourceService) Pagination(ctx context.Context, condition *KnowledgeResourceQuery) (*PageResult[*model.KnowledgeResource], error) {
	if condition == nil {
		condition = &KnowledgeResourceQuery{}
	}
	query := s.db.WithContext(ctx)
	if condition.Kno != "" {
		query = query.Where("kno = ?", condition.Kno)
	}
	if condition.State != "" {
		query = query.Where("state = ?", condition.State)
	}
	query = keywordsCondition(query, condition.Keywords,
		contains("filename"),
		contains("keywords"),
		contains("md_paths"),
		prefix("crawler"),
	)
	return s.paginate(query, condition.PageQuery, "kno DESC", "id ASC")
}

func fillOssExtra(record *model.KnowledgeResource) error {
	if record.OssInfo == nil {
		return nil
	}
	text, err := model.ToJSONText(record.OssInfo)
	if err != nil {
		return fmt.Errorf("%w: %v", constant.ErrSerializeError, err)
	}
	record.OssExtra = text
	return nil
}

func (s *knowledgeResourceService) CreateNew(ctx context.Context, record *model.KnowledgeResource) error {
	record.Kno = strings.TrimSpace(record.Kno)
	if record.Kno == "" {
		return fmt.Errorf("%w: kno不能为空", constant.ErrInvalidParams)
	}
	if err := fillOssExtra(record); err != nil {
		return err
	}
	record.ID = 0
	record.State = constant.KnStateEmpty

	if err := s.create(ctx, record, fmt.Sprintf("资源[%s]已存在", record.Filename)); err != nil {
		return err
	}
	record.OssInfo = model.ParseJSON(record.OssExtra)
	record.Ready = false
	return nil
}

func (s *knowledgeResourceService) SetState(ctx context.Context, id uint64, state string) (bool, error) {
	if !lo.Contains(constant.KnStates, state) {
		return false, fmt.Errorf("%w: 未知状态 %s", constant.ErrInvalidParams, state)
	}
	return s.updateColumn(ctx, id, "state", state)
}

// UpdateSome 在最新记录上合并传入的非空字段，记录不存在视为冲突
func (s *knowledgeResourceService) UpdateSome(ctx context.Context, record *model.KnowledgeResource) (*model.KnowledgeResource, error) {
	if record.ID == 0 {
		return nil, constant.ErrRecordIDEmpty
	}
	existing := &model.KnowledgeResource{}
	if err := s.db.WithContext(ctx).First(existing, "id = ?", record.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.conflict(fmt.Sprintf("资源[%d]已被删除", record.ID))
		}
		logger.Error("查询资源失败", logger.F("id", record.ID), logger.F("error", err))
		return nil, err
	}

	if record.State != "" {
		if !lo.Contains(constant.KnStates, record.State) {
			return nil, fmt.Errorf("%w: 未知状态 %s", constant.ErrInvalidParams, record.State)
		}
		existing.State = record.State
	}
	if err := fillOssExtra(record); err != nil {
		return nil, err
	}
	merge := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	merge(&existing.OssExtra, record.OssExtra)
	merge(&existing.Filename, record.Filename)
	merge(&existing.EntryURL, record.EntryURL)
	merge(&existing.SubURL, record.SubURL)
	merge(&existing.Keywords, record.Keywords)
	merge(&existing.MdPaths, record.MdPaths)
	merge(&existing.Mddir, record.Mddir)
	merge(&existing.MdFile, record.MdFile)
	merge(&existing.Crawler, record.Crawler)
	merge(&existing.Remark, record.Remark)

	if err := s.db.WithContext(ctx).Model(existing).
		Select("state", "oss_extra", "filename", "entry_url", "sub_url", "keywords", "md_paths", "mddir", "md_file", "crawler", "remark").
		Updates(existing).Error; err != nil {
		logger.Error("更新资源失败", logger.F("id", existing.ID), logger.F("error", err))
		return nil, err
	}
	existing.OssInfo = model.ParseJSON(existing.OssExtra)
	existing.Ready = existing.State == constant.KnStateReady
	return existing, nil
}
