package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"github.com/yockii/knorm/internal/constant"
	"github.com/yockii/knorm/internal/model"
	"github.com/yockii/knorm/internal/service"
)

type KnowledgeHandler struct {
	knowledgeBaseService     service.KnowledgeBaseService
	knowledgeResourceService service.KnowledgeResourceService
}

type availableRequest struct {
	ID        uint64 `json:"id,string"`
	Available bool   `json:"available"`
}

type stateRequest struct {
	ID    uint64 `json:"id,string"`
	State string `json:"state"`
}

func NewKnowledgeHandler(
	knowledgeBaseService service.KnowledgeBaseService,
	knowledgeResourceService service.KnowledgeResourceService,
) *KnowledgeHandler {
	return &KnowledgeHandler{
		knowledgeBaseService:     knowledgeBaseService,
		knowledgeResourceService: knowledgeResourceService,
	}
}

func RegisterKnowledgeHandler(
	knowledgeBaseService service.KnowledgeBaseService,
	knowledgeResourceService service.KnowledgeResourceService,
) {
	Handlers = append(Handlers, NewKnowledgeHandler(knowledgeBaseService, knowledgeResourceService))
}

func (h *KnowledgeHandler) RegisterRoutes(router fiber.Router) {
	kb := router.Group("/knowledge")
	{
		kb.Get("/list", h.List)
		kb.Get("/get", h.Get)
		kb.Post("/new", h.Create)
		kb.Post("/update", h.Update)
		kb.Post("/set_available", h.SetAvailable)
	}
	res := router.Group("/knowledge_resource")
	{
		res.Get("/list", h.ListResource)
		res.Get("/get", h.GetResource)
		res.Post("/new", h.CreateResource)
		res.Post("/update", h.UpdateResource)
		res.Post("/set_state", h.SetResourceState)
	}
}

func (h *KnowledgeHandler) List(c *fiber.Ctx) error {
	condition := new(service.KnowledgeBaseQuery)
	if err := c.QueryParser(condition); err != nil {
		return badRequest(c)
	}
	clampPage(&condition.PageQuery)
	result, err := h.knowledgeBaseService.Pagination(c.Context(), condition)
	if err != nil {
		return fail(c, "获取知识库列表失败", err)
	}
	return c.JSON(service.OK(result))
}

// Get 支持按 id 或 kno 查询
func (h *KnowledgeHandler) Get(c *fiber.Ctx) error {
	var (
		record *model.KnowledgeBase
		err    error
	)
	if kno := c.Query("kno"); kno != "" {
		record, err = h.knowledgeBaseService.GetByKno(c.Context(), kno)
	} else {
		id, perr := queryID(c, "id")
		if perr != nil {
			return badRequest(c)
		}
		record, err = h.knowledgeBaseService.GetByID(c.Context(), id)
	}
	if err != nil {
		return fail(c, "获取知识库失败", err)
	}
	return c.JSON(service.OK(record))
}

func (h *KnowledgeHandler) Create(c *fiber.Ctx) error {
	record := new(model.KnowledgeBase)
	if err := c.BodyParser(record); err != nil {
		return badRequest(c)
	}
	if err := h.knowledgeBaseService.CreateNew(c.Context(), record); err != nil {
		return fail(c, "创建知识库失败", err)
	}
	return c.JSON(service.OK(record))
}

func (h *KnowledgeHandler) Update(c *fiber.Ctx) error {
	record := new(model.KnowledgeBase)
	if err := c.BodyParser(record); err != nil || record.ID == 0 {
		return badRequest(c)
	}
	updated, err := h.knowledgeBaseService.UpdateSome(c.Context(), record)
	if err != nil {
		return fail(c, "更新知识库失败", err)
	}
	return c.JSON(service.OK(updated))
}

func (h *KnowledgeHandler) SetAvailable(c *fiber.Ctx) error {
	req := new(availableRequest)
	if err := c.BodyParser(req); err != nil || req.ID == 0 {
		return badRequest(c)
	}
	ok, err := h.knowledgeBaseService.SetAvailable(c.Context(), req.ID, req.Available)
	if err != nil {
		return fail(c, "更新知识库可用状态失败", err)
	}
	return c.JSON(service.OK(ok))
}

func (h *KnowledgeHandler) ListResource(c *fiber.Ctx) error {
	condition := new(service.KnowledgeResourceQuery)
	if err := c.QueryParser(condition); err != nil {
		return badRequest(c)
	}
	clampPage(&condition.PageQuery)
	result, err := h.knowledgeResourceService.Pagination(c.Context(), condition)
	if err != nil {
		return fail(c, "获取知识资源列表失败", err)
	}
	return c.JSON(service.OK(result))
}

func (h *KnowledgeHandler) GetResource(c *fiber.Ctx) error {
	id, err := queryID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	record, err := h.knowledgeResourceService.GetByID(c.Context(), id)
	if err != nil {
		return fail(c, "获取知识资源失败", err)
	}
	return c.JSON(service.OK(record))
}

func (h *KnowledgeHandler) CreateResource(c *fiber.Ctx) error {
	record := new(model.KnowledgeResource)
	if err := c.BodyParser(record); err != nil {
		return badRequest(c)
	}
	if err := h.knowledgeResourceService.CreateNew(c.Context(), record); err != nil {
		return fail(c, "创建知识资源失败", err)
	}
	return c.JSON(service.OK(record))
}

func (h *KnowledgeHandler) UpdateResource(c *fiber.Ctx) error {
	record := new(model.KnowledgeResource)
	if err := c.BodyParser(record); err != nil || record.ID == 0 {
		return badRequest(c)
	}
	updated, err := h.knowledgeResourceService.UpdateSome(c.Context(), record)
	if err != nil {
		return fail(c, "更新知识资源失败", err)
	}
	return c.JSON(service.OK(updated))
}

func (h *KnowledgeHandler) SetResourceState(c *fiber.Ctx) error {
	req := new(stateRequest)
	if err := c.BodyParser(req); err != nil || req.ID == 0 || !lo.Contains(constant.KnStates, req.State) {
		return badRequest(c)
	}
	ok, err := h.knowledgeResourceService.SetState(c.Context(), req.ID, req.State)
	if err != nil {
		return fail(c, "更新知识资源状态失败", err)
	}
	return c.JSON(service.OK(ok))
}
