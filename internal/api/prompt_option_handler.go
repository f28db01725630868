package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/yockii/knorm/internal/model"
	"github.com/yockii/knorm/internal/service"
)

type PromptOptionHandler struct {
	optionService service.PromptOptionService
	refresher     CacheRefresher
}

func NewPromptOptionHandler(optionService service.PromptOptionService, refresher CacheRefresher) *PromptOptionHandler {
	return &PromptOptionHandler{
		optionService: optionService,
		refresher:     refresher,
	}
}

func RegisterPromptOptionHandler(optionService service.PromptOptionService, refresher CacheRefresher) {
	Handlers = append(Handlers, NewPromptOptionHandler(optionService, refresher))
}

func (h *PromptOptionHandler) RegisterRoutes(router fiber.Router) {
	r := router.Group("/pet_option")
	{
		r.Get("/list", h.List)
		r.Get("/get", h.Get)
		r.Get("/template_options", h.TemplateOptions)
		r.Post("/new", h.Create)
		r.Post("/update", h.Update)
		r.Post("/set_default", h.SetDefault)
		r.Post("/set_status", h.SetStatus)
		r.Post("/set_sortno", h.SetSortno)
	}
}

func (h *PromptOptionHandler) List(c *fiber.Ctx) error {
	condition := new(service.PromptOptionQuery)
	if err := c.QueryParser(condition); err != nil {
		return badRequest(c)
	}
	clampPage(&condition.PageQuery)
	result, err := h.optionService.Pagination(c.Context(), condition)
	if err != nil {
		return fail(c, "获取模型参数列表失败", err)
	}
	return c.JSON(service.OK(result))
}

func (h *PromptOptionHandler) Get(c *fiber.Ctx) error {
	id, err := queryID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	record, err := h.optionService.GetByID(c.Context(), id)
	if err != nil {
		return fail(c, "获取模型参数失败", err)
	}
	return c.JSON(service.OK(record))
}

// TemplateOptions uuids 以逗号分隔
func (h *PromptOptionHandler) TemplateOptions(c *fiber.Ctx) error {
	var uuids []uint64
	for _, s := range strings.Split(c.Query("uuids"), ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		uuid, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return badRequest(c)
		}
		uuids = append(uuids, uuid)
	}
	list, err := h.optionService.GetTemplateOptions(c.Context(), uuids...)
	if err != nil {
		return fail(c, "获取模板模型参数失败", err)
	}
	return c.JSON(service.OK(list))
}

func (h *PromptOptionHandler) Create(c *fiber.Ctx) error {
	record := new(model.PromptOption)
	if err := c.BodyParser(record); err != nil {
		return badRequest(c)
	}
	if err := h.optionService.CreateNew(c.Context(), record); err != nil {
		return fail(c, "创建模型参数失败", err)
	}
	refreshAsync(h.refresher, record.UUID)
	return c.JSON(service.OK(record))
}

func (h *PromptOptionHandler) Update(c *fiber.Ctx) error {
	record := new(model.PromptOption)
	if err := c.BodyParser(record); err != nil || record.ID == 0 {
		return badRequest(c)
	}
	before, err := h.optionService.GetByID(c.Context(), record.ID)
	if err != nil {
		return fail(c, "获取模型参数失败", err)
	}
	updated, err := h.optionService.UpdateSome(c.Context(), record)
	if err != nil {
		return fail(c, "更新模型参数失败", err)
	}
	refreshAsync(h.refresher, updated.UUID)
	if before.UUID != updated.UUID {
		refreshAsync(h.refresher, before.UUID)
	}
	return c.JSON(service.OK(updated))
}

func (h *PromptOptionHandler) SetDefault(c *fiber.Ctx) error {
	req := new(idRequest)
	if err := c.BodyParser(req); err != nil || req.ID == 0 {
		return badRequest(c)
	}
	ok, err := h.optionService.SetDefault(c.Context(), req.ID)
	if err != nil {
		return fail(c, "设置默认模型参数失败", err)
	}
	if ok {
		h.refreshOwner(c, req.ID)
	}
	return c.JSON(service.OK(ok))
}

func (h *PromptOptionHandler) SetStatus(c *fiber.Ctx) error {
	req := new(statusRequest)
	if err := c.BodyParser(req); err != nil || req.ID == 0 || !validStatus(req.Status) {
		return badRequest(c)
	}
	ok, err := h.optionService.SetStatus(c.Context(), req.ID, req.Status)
	if err != nil {
		return fail(c, "更新模型参数状态失败", err)
	}
	if ok {
		h.refreshOwner(c, req.ID)
	}
	return c.JSON(service.OK(ok))
}

func (h *PromptOptionHandler) SetSortno(c *fiber.Ctx) error {
	req := new(sortnoRequest)
	if err := c.BodyParser(req); err != nil || req.ID == 0 {
		return badRequest(c)
	}
	ok, err := h.optionService.SetSortno(c.Context(), req.ID, req.Sortno)
	if err != nil {
		return fail(c, "更新模型参数排序失败", err)
	}
	if ok {
		h.refreshOwner(c, req.ID)
	}
	return c.JSON(service.OK(ok))
}

// refreshOwner 刷新参数所属模板的缓存
func (h *PromptOptionHandler) refreshOwner(c *fiber.Ctx, id uint64) {
	if h.refresher == nil {
		return
	}
	record, err := h.optionService.GetByID(c.Context(), id)
	if err != nil {
		return
	}
	refreshAsync(h.refresher, record.UUID)
}
