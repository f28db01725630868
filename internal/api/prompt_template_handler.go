package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/yockii/knorm/internal/model"
	"github.com/yockii/knorm/internal/service"
)

type PromptTemplateHandler struct {
	templateService service.PromptTemplateService
	refresher       CacheRefresher
}

type petStatusRequest struct {
	UUID   uint64 `json:"uuid"`
	Status int    `json:"status"`
}

type petSortnoRequest struct {
	UUID   uint64 `json:"uuid"`
	Sortno int64  `json:"sortno"`
}

type petRequest struct {
	UUID uint64 `json:"uuid"`
}

func NewPromptTemplateHandler(templateService service.PromptTemplateService, refresher CacheRefresher) *PromptTemplateHandler {
	return &PromptTemplateHandler{
		templateService: templateService,
		refresher:       refresher,
	}
}

func RegisterPromptTemplateHandler(templateService service.PromptTemplateService, refresher CacheRefresher) {
	Handlers = append(Handlers, NewPromptTemplateHandler(templateService, refresher))
}

func (h *PromptTemplateHandler) RegisterRoutes(router fiber.Router) {
	r := router.Group("/pet")
	{
		r.Get("/list", h.List)
		r.Get("/get", h.Get)
		r.Get("/cache", h.Cache)
		r.Get("/caches", h.Caches)
		r.Post("/new", h.Create)
		r.Post("/update", h.Update)
		r.Post("/set_status", h.SetStatus)
		r.Post("/set_sortno", h.SetSortno)
		r.Post("/delete", h.Delete)
	}
}

func (h *PromptTemplateHandler) List(c *fiber.Ctx) error {
	condition := new(service.PromptTemplateQuery)
	if err := c.QueryParser(condition); err != nil {
		return badRequest(c)
	}
	clampPage(&condition.PageQuery)
	result, err := h.templateService.Pagination(c.Context(), condition)
	if err != nil {
		return fail(c, "获取模板列表失败", err)
	}
	return c.JSON(service.OK(result))
}

func (h *PromptTemplateHandler) Get(c *fiber.Ctx) error {
	uuid, err := queryID(c, "uuid")
	if err != nil {
		return badRequest(c)
	}
	var record *model.PromptTemplate
	if c.QueryBool("withDeleted") {
		record, err = h.templateService.GetWithDeleted(c.Context(), uuid)
	} else {
		record, err = h.templateService.GetByID(c.Context(), uuid)
	}
	if err != nil {
		return fail(c, "获取模板失败", err)
	}
	return c.JSON(service.OK(record))
}

func (h *PromptTemplateHandler) Cache(c *fiber.Ctx) error {
	uuid, err := queryID(c, "uuid")
	if err != nil {
		return badRequest(c)
	}
	cache, err := h.templateService.BuildOnePetCache(c.Context(), uuid)
	if err != nil {
		return fail(c, "构建模板缓存失败", err)
	}
	return c.JSON(service.OK(cache))
}

func (h *PromptTemplateHandler) Caches(c *fiber.Ctx) error {
	caches, err := h.templateService.GetAllPetCaches(c.Context())
	if err != nil {
		return fail(c, "构建模板缓存失败", err)
	}
	return c.JSON(service.OK(caches))
}

func (h *PromptTemplateHandler) Create(c *fiber.Ctx) error {
	record := new(model.PromptTemplate)
	if err := c.BodyParser(record); err != nil {
		return badRequest(c)
	}
	if err := h.templateService.CreateNew(c.Context(), record); err != nil {
		return fail(c, "创建模板失败", err)
	}
	refreshAsync(h.refresher, record.ID)
	return c.JSON(service.OK(record))
}

func (h *PromptTemplateHandler) Update(c *fiber.Ctx) error {
	record := new(model.PromptTemplate)
	if err := c.BodyParser(record); err != nil || record.ID == 0 {
		return badRequest(c)
	}
	ok, err := h.templateService.UpdateSome(c.Context(), record)
	if err != nil {
		return fail(c, "更新模板失败", err)
	}
	if ok {
		refreshAsync(h.refresher, record.ID)
	}
	return c.JSON(service.OK(ok))
}

func (h *PromptTemplateHandler) SetStatus(c *fiber.Ctx) error {
	req := new(petStatusRequest)
	if err := c.BodyParser(req); err != nil || req.UUID == 0 || !validStatus(req.Status) {
		return badRequest(c)
	}
	ok, err := h.templateService.SetStatus(c.Context(), req.UUID, req.Status)
	if err != nil {
		return fail(c, "更新模板状态失败", err)
	}
	if ok {
		refreshAsync(h.refresher, req.UUID)
	}
	return c.JSON(service.OK(ok))
}

func (h *PromptTemplateHandler) SetSortno(c *fiber.Ctx) error {
	req := new(petSortnoRequest)
	if err := c.BodyParser(req); err != nil || req.UUID == 0 {
		return badRequest(c)
	}
	ok, err := h.templateService.SetSortno(c.Context(), req.UUID, req.Sortno)
	if err != nil {
		return fail(c, "更新模板排序失败", err)
	}
	return c.JSON(service.OK(ok))
}

func (h *PromptTemplateHandler) Delete(c *fiber.Ctx) error {
	req := new(petRequest)
	if err := c.BodyParser(req); err != nil || req.UUID == 0 {
		return badRequest(c)
	}
	ok, err := h.templateService.RemoveByID(c.Context(), req.UUID)
	if err != nil {
		return fail(c, "删除模板失败", err)
	}
	if ok {
		refreshAsync(h.refresher, req.UUID)
	}
	return c.JSON(service.OK(ok))
}
