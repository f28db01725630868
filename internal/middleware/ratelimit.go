package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yockii/knorm/internal/constant"
	"github.com/yockii/knorm/internal/service"
	"github.com/yockii/knorm/pkg/logger"
)

// window 单个客户端在当前时间窗口内的剩余次数
type window struct {
	remaining int
	start     time.Time
}

// RateLimiter 固定窗口写请求限流器
type RateLimiter struct {
	max    int
	period time.Duration

	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter 每个客户端在 period 内最多 max 次写请求
func NewRateLimiter(max int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		max:     max,
		period:  period,
		windows: make(map[string]*window),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// take 消耗一次额度，返回是否放行、剩余次数和窗口重置时间
func (rl *RateLimiter) take(clientID string) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[clientID]
	if !ok || now.Sub(w.start) >= rl.period {
		w = &window{remaining: rl.max, start: now}
		rl.windows[clientID] = w
	}
	reset := w.start.Add(rl.period)
	if w.remaining <= 0 {
		return false, 0, reset
	}
	w.remaining--
	return true, w.remaining, reset
}

// cleanup 删除已过期两个周期的窗口
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for clientID, w := range rl.windows {
		if now.Sub(w.start) >= rl.period*2 {
			delete(rl.windows, clientID)
		}
	}
}

// Start 启动过期窗口的定时清理，Stop 后退出
func (rl *RateLimiter) Start() {
	interval := rl.period * 2
	go func() {
		defer close(rl.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stop:
				return
			}
		}
	}()
}

// Stop 可重复调用
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}

// Done 清理协程退出后关闭
func (rl *RateLimiter) Done() <-chan struct{} {
	return rl.done
}

func isReadOnly(c *fiber.Ctx) bool {
	switch c.Method() {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return true
	}
	return false
}

// Handler 按客户端IP限制写请求频率，读请求不受限
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isReadOnly(c) {
			return c.Next()
		}

		clientID := c.IP()
		ok, remaining, reset := rl.take(clientID)
		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if ok {
			return c.Next()
		}

		retryAfter := int(reset.Sub(rl.now()).Seconds()) + 1
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		logger.Warn("写请求过于频繁",
			logger.F("clientId", clientID),
			logger.F("path", c.Path()),
			logger.F("retryAfter", retryAfter),
		)
		return c.Status(fiber.StatusTooManyRequests).JSON(service.Error(constant.ErrTooManyRequests))
	}
}
