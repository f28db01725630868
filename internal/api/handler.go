package api

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"github.com/yockii/knorm/internal/constant"
	"github.com/yockii/knorm/internal/service"
	"github.com/yockii/knorm/pkg/logger"
)

// MaxPageSize 接口层允许的最大分页大小
const MaxPageSize = 100

var Handlers []Handler

type Handler interface {
	RegisterRoutes(router fiber.Router)
}

// CacheRefresher 模板或模型参数变更后刷新对应缓存
type CacheRefresher interface {
	RefreshOne(ctx context.Context, uuid uint64) error
}

type idRequest struct {
	ID uint64 `json:"id,string"`
}

type statusRequest struct {
	ID     uint64 `json:"id,string"`
	Status int    `json:"status"`
}

type sortnoRequest struct {
	ID     uint64 `json:"id,string"`
	Sortno int64  `json:"sortno"`
}

func validStatus(status int) bool {
	return lo.Contains([]int{constant.StatusForbidden, constant.StatusNormal}, status)
}

// fail 按错误类型返回对应状态码
func fail(c *fiber.Ctx, msg string, err error) error {
	code := constant.GetErrorCode(err)
	if code >= fiber.StatusInternalServerError {
		logger.Error(msg, logger.F("path", c.Path()), logger.F("err", err))
	}
	return c.Status(code).JSON(service.Error(err))
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(service.Error(constant.ErrInvalidParams))
}

func queryID(c *fiber.Ctx, key string) (uint64, error) {
	id, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil || id == 0 {
		return 0, constant.ErrInvalidParams
	}
	return id, nil
}

func clampPage(q *service.PageQuery) {
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
}

// refreshAsync 异步刷新缓存，失败只记录日志
func refreshAsync(refresher CacheRefresher, uuid uint64) {
	if refresher == nil || uuid == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := refresher.RefreshOne(ctx, uuid); err != nil {
			logger.Warn("刷新模板缓存失败", logger.F("uuid", uuid), logger.F("error", err))
		}
	}()
}
