package job

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yockii/knorm/internal/service"
	"github.com/yockii/knorm/pkg/logger"
)

const refreshTimeout = time.Minute

// PetCacheRefresher 定时重建模板缓存并发布到缓存存储
type PetCacheRefresher struct {
	cron        *cron.Cron
	cronSpec    string
	templateSrv service.PromptTemplateService
	store       service.PetCacheStore

	mu        sync.Mutex
	published map[uint64]struct{}
}

func NewPetCacheRefresher(templateSrv service.PromptTemplateService, store service.PetCacheStore, cronSpec string) *PetCacheRefresher {
	return &PetCacheRefresher{
		cron:        cron.New(),
		cronSpec:    cronSpec,
		templateSrv: templateSrv,
		store:       store,
		published:   make(map[uint64]struct{}),
	}
}

// RefreshAll 全量重建，并清理上次发布后已不存在的模板
func (r *PetCacheRefresher) RefreshAll(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	caches, err := r.templateSrv.GetAllPetCaches(ctx)
	if err != nil {
		return 0, err
	}
	if err := r.store.Publish(ctx, caches...); err != nil {
		return 0, err
	}

	current := make(map[uint64]struct{}, len(caches))
	for _, c := range caches {
		current[c.UUID] = struct{}{}
	}
	for uuid := range r.published {
		if _, ok := current[uuid]; ok {
			continue
		}
		if err := r.store.Remove(ctx, uuid); err != nil {
			logger.Warn("清理过期模板缓存失败", logger.F("uuid", uuid), logger.F("error", err))
			current[uuid] = struct{}{}
		}
	}
	r.published = current

	logger.Info("模板缓存已刷新", logger.F("count", len(caches)))
	return len(caches), nil
}

// RefreshOne 重建单个模板，模板不存在时删除缓存
func (r *PetCacheRefresher) RefreshOne(ctx context.Context, uuid uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.templateSrv.BuildOnePetCache(ctx, uuid)
	if err != nil {
		return err
	}
	if c == nil {
		if err := r.store.Remove(ctx, uuid); err != nil {
			return err
		}
		delete(r.published, uuid)
		return nil
	}
	if err := r.store.Publish(ctx, c); err != nil {
		return err
	}
	r.published[uuid] = struct{}{}
	return nil
}

// Start 启动时先全量刷新一次，再按cron表达式定时执行
func (r *PetCacheRefresher) Start() error {
	if _, err := r.cron.AddFunc(r.cronSpec, r.refresh); err != nil {
		logger.Error("注册模板缓存定时任务失败", logger.F("cron", r.cronSpec), logger.F("error", err))
		return err
	}
	r.refresh()
	r.cron.Start()
	logger.Info("模板缓存定时任务已启动", logger.F("cron", r.cronSpec))
	return nil
}

func (r *PetCacheRefresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *PetCacheRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if _, err := r.RefreshAll(ctx); err != nil {
		logger.Error("刷新模板缓存失败", logger.F("error", err))
	}
}
