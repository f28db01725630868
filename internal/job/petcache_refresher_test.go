package job

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yockii/knorm/internal/model"
	"github.com/yockii/knorm/internal/service"
)

type fakeTemplateService struct {
	service.PromptTemplateService
	all []*model.PetCache
	one map[uint64]*model.PetCache
	err error
}

func (f *fakeTemplateService) GetAllPetCaches(ctx context.Context) ([]*model.PetCache, error) {
	return f.all, f.err
}

func (f *fakeTemplateService) BuildOnePetCache(ctx context.Context, uuid uint64) (*model.PetCache, error) {
	return f.one[uuid], f.err
}

func newRefresher(t *testing.T, srv *fakeTemplateService, cronSpec string) (*PetCacheRefresher, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
	})
	return NewPetCacheRefresher(srv, service.NewPetCacheStore(rdb, 0), cronSpec), mr
}

func TestRefreshAll(t *testing.T) {
	srv := &fakeTemplateService{all: []*model.PetCache{{UUID: 5000}, {UUID: 5001}}}
	r, mr := newRefresher(t, srv, "@every 1h")

	n, err := r.RefreshAll(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("knorm:pet:5000"))
	assert.True(t, mr.Exists("knorm:pet:5001"))

	// 5001 被删除后下次全量刷新清理其缓存
	srv.all = []*model.PetCache{{UUID: 5000}}
	_, err = r.RefreshAll(testContext(t))
	require.NoError(t, err)
	assert.True(t, mr.Exists("knorm:pet:5000"))
	assert.False(t, mr.Exists("knorm:pet:5001"))

	srv.err = errors.New("db down")
	_, err = r.RefreshAll(testContext(t))
	assert.Error(t, err)
	assert.True(t, mr.Exists("knorm:pet:5000"))
}

func TestRefreshOne(t *testing.T) {
	srv := &fakeTemplateService{one: map[uint64]*model.PetCache{5000: {UUID: 5000, Title: "t"}}}
	r, mr := newRefresher(t, srv, "@every 1h")

	require.NoError(t, r.RefreshOne(testContext(t), 5000))
	assert.True(t, mr.Exists("knorm:pet:5000"))

	delete(srv.one, 5000)
	require.NoError(t, r.RefreshOne(testContext(t), 5000))
	assert.False(t, mr.Exists("knorm:pet:5000"))
}

func TestStartStop(t *testing.T) {
	srv := &fakeTemplateService{all: []*model.PetCache{{UUID: 5000}}}
	r, mr := newRefresher(t, srv, "@every 1h")
	require.NoError(t, r.Start())
	assert.True(t, mr.Exists("knorm:pet:5000"))
	r.Stop()

	bad, _ := newRefresher(t, srv, "not a cron")
	assert.Error(t, bad.Start())
}
