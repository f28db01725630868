package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/yockii/knorm/internal/model"
	"github.com/yockii/knorm/internal/service"
)

type LargeModelHandler struct {
	largeModelService service.LargeModelService
}

func NewLargeModelHandler(largeModelService service.LargeModelService) *LargeModelHandler {
	return &LargeModelHandler{largeModelService: largeModelService}
}

func RegisterLargeModelHandler(largeModelService service.LargeModelService) {
	Handlers = append(Handlers, NewLargeModelHandler(largeModelService))
}

func (h *LargeModelHandler) RegisterRoutes(router fiber.Router) {
	r := router.Group("/provider")
	{
		r.Get("/list", h.List)
		r.Get("/get", h.Get)
		r.Get("/selection", h.Selection)
		r.Post("/new", h.Create)
		r.Post("/update", h.Update)
		r.Post("/set_status", h.SetStatus)
		r.Post("/set_sortno", h.SetSortno)
	}
}

func (h *LargeModelHandler) List(c *fiber.Ctx) error {
	condition := new(service.LargeModelQuery)
	if err := c.QueryParser(condition); err != nil {
		return badRequest(c)
	}
	clampPage(&condition.PageQuery)
	result, err := h.largeModelService.Pagination(c.Context(), condition)
	if err != nil {
		return fail(c, "获取模型列表失败", err)
	}
	return c.JSON(service.OK(result))
}

func (h *LargeModelHandler) Get(c *fiber.Ctx) error {
	id, err := queryID(c, "id")
	if err != nil {
		return badRequest(c)
	}
	record, err := h.largeModelService.GetByID(c.Context(), id)
	if err != nil {
		return fail(c, "获取模型失败", err)
	}
	return c.JSON(service.OK(record))
}

func (h *LargeModelHandler) Selection(c *fiber.Ctx) error {
	options, err := h.largeModelService.GetSelection(c.Context(), c.Query("provider"))
	if err != nil {
		return fail(c, "获取模型选项失败", err)
	}
	return c.JSON(service.OK(options))
}

func (h *LargeModelHandler) Create(c *fiber.Ctx) error {
	record := new(model.LargeModel)
	if err := c.BodyParser(record); err != nil {
		return badRequest(c)
	}
	if err := h.largeModelService.Create(c.Context(), record); err != nil {
		return fail(c, "创建模型失败", err)
	}
	return c.JSON(service.OK(record))
}

func (h *LargeModelHandler) Update(c *fiber.Ctx) error {
	record := new(model.LargeModel)
	if err := c.BodyParser(record); err != nil || record.ID == 0 {
		return badRequest(c)
	}
	updated, err := h.largeModelService.Update(c.Context(), record)
	if err != nil {
		return fail(c, "更新模型失败", err)
	}
	return c.JSON(service.OK(updated))
}

func (h *LargeModelHandler) SetStatus(c *fiber.Ctx) error {
	req := new(statusRequest)
	if err := c.BodyParser(req); err != nil || req.ID == 0 || !validStatus(req.Status) {
		return badRequest(c)
	}
	ok, err := h.largeModelService.SetStatus(c.Context(), req.ID, req.Status)
	if err != nil {
		return fail(c, "更新模型状态失败", err)
	}
	return c.JSON(service.OK(ok))
}

func (h *LargeModelHandler) SetSortno(c *fiber.Ctx) error {
	req := new(sortnoRequest)
	if err := c.BodyParser(req); err != nil || req.ID == 0 {
		return badRequest(c)
	}
	ok, err := h.largeModelService.SetSortno(c.Context(), req.ID, req.Sortno)
	if err != nil {
		return fail(c, "更新模型排序失败", err)
	}
	return c.JSON(service.OK(ok))
}
