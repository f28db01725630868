package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "knorm"

var (
	// ConflictTotal 唯一键冲突次数，按实体区分
	ConflictTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conflict_total",
		Help:      "count of natural key conflicts by entity",
	}, []string{"entity"})

	// PetCacheBuildTotal 模板缓存构建次数，mode 为 one/all
	PetCacheBuildTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "petcache_build_total",
		Help:      "count of pet cache builds by mode",
	}, []string{"mode"})

	PetCacheTruncatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "petcache_truncated_total",
		Help:      "count of full pet cache builds that reached the row cap",
	})

	// PetCacheReady 最近一次全量构建中可用的模板数
	PetCacheReady = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "petcache_ready",
		Help:      "number of ready templates in the latest full pet cache build",
	})
)

const (
	EntityLargeModel    = "large_model"
	EntityPromptOption  = "prompt_option"
	EntityTemplate      = "prompt_template"
	EntityKnowledgeBase = "knowledge_base"
	EntityKnowledgeRes  = "knowledge_resource"

	BuildModeOne = "one"
	BuildModeAll = "all"
)
