package service

import (
	"context"
	"net/http"

	"github.com/yockii/knorm/internal/constant"
	"github.com/yockii/knorm/internal/model"
)

type LargeModelService interface {
	Pagination(ctx context.Context, query *LargeModelQuery) (*PageResult[*model.LargeModel], error)
	GetByID(ctx context.Context, id uint64) (*model.LargeModel, error)
	FindByModelid(ctx context.Context, modelid string) (*model.LargeModel, error)
	Create(ctx context.Context, record *model.LargeModel) error
	Update(ctx context.Context, record *model.LargeModel) (*model.LargeModel, error)
	SetSortno(ctx context.Context, id uint64, sortno int64) (bool, error)
	SetStatus(ctx context.Context, id uint64, status int) (bool, error)
	GetSelection(ctx context.Context, provider string) ([]*SelectOption, error)
}

type PromptTemplateService interface {
	Pagination(ctx context.Context, query *PromptTemplateQuery) (*PageResult[*model.PromptTemplate], error)
	GetByID(ctx context.Context, id uint64) (*model.PromptTemplate, error)
	GetWithDeleted(ctx context.Context, id uint64) (*model.PromptTemplate, error)
	CreateNew(ctx context.Context, record *model.PromptTemplate) error
	UpdateSome(ctx context.Context, record *model.PromptTemplate) (bool, error)
	SetStatus(ctx context.Context, id uint64, status int) (bool, error)
	SetSortno(ctx context.Context, id uint64, sortno int64) (bool, error)
	RemoveByID(ctx context.Context, id uint64) (bool, error)
	NextUUID(ctx context.Context) (uint64, error)
	NextSortno(ctx context.Context) (int64, error)
	BuildOnePetCache(ctx context.Context, uuid uint64) (*model.PetCache, error)
	GetAllPetCaches(ctx context.Context) ([]*model.PetCache, error)
}

type PromptOptionService interface {
	Pagination(ctx context.Context, query *PromptOptionQuery) (*PageResult[*model.PromptOption], error)
	GetByID(ctx context.Context, id uint64) (*model.PromptOption, error)
	GetTemplateOptions(ctx context.Context, uuids ...uint64) ([]*model.PromptOption, error)
	CreateNew(ctx context.Context, record *model.PromptOption) error
	UpdateSome(ctx context.Context, record *model.PromptOption) (*model.PromptOption, error)
	SetDefault(ctx context.Context, id uint64) (bool, error)
	SetStatus(ctx context.Context, id uint64, status int) (bool, error)
	SetSortno(ctx context.Context, id uint64, sortno int64) (bool, error)
	FindExists(ctx context.Context, uuid uint64, provider, modelName string) (*model.PromptOption, error)
	FindRepeat(ctx context.Context, id, uuid uint64, provider, modelName string) (*model.PromptOption, error)
	NextSortno(ctx context.Context, uuid uint64) (int64, error)
}

type KnowledgeBaseService interface {
	Pagination(ctx context.Context, query *KnowledgeBaseQuery) (*PageResult[*model.KnowledgeBase], error)
	GetByID(ctx context.Context, id uint64) (*model.KnowledgeBase, error)
	GetByKno(ctx context.Context, kno string) (*model.KnowledgeBase, error)
	CreateNew(ctx context.Context, record *model.KnowledgeBase) error
	UpdateSome(ctx context.Context, record *model.KnowledgeBase) (*model.KnowledgeBase, error)
	SetAvailable(ctx context.Context, id uint64, available bool) (bool, error)
	GenerateKno() string
}

type KnowledgeResourceService interface {
	Pagination(ctx context.Context, query *KnowledgeResourceQuery) (*PageResult[*model.KnowledgeResource], error)
	GetByID(ctx context.Context, id uint64) (*model.KnowledgeResource, error)
	CreateNew(ctx context.Context, record *model.KnowledgeResource) error
	SetState(ctx context.Context, id uint64, state string) (bool, error)
	UpdateSome(ctx context.Context, record *model.KnowledgeResource) (*model.KnowledgeResource, error)
}

type PetCacheStore interface {
	Publish(ctx context.Context, caches ...*model.PetCache) error
	Get(ctx context.Context, uuid uint64) (*model.PetCache, error)
	Remove(ctx context.Context, uuid uint64) error
}

// /////////////////////////////
// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func OK(data interface{}) *Response {
	return NewResponse(data, nil)
}

func Error(err error) *Response {
	return NewResponse(nil, err)
}

// NewResponse 创建响应
func NewResponse(data interface{}, err error) *Response {
	if err == nil {
		return &Response{
			Code:    http.StatusOK,
			Message: "success",
			Data:    data,
		}
	}

	return &Response{
		Code:    constant.GetErrorCode(err),
		Message: err.Error(),
		Data:    data,
	}
}
