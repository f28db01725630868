package constant

// 通用状态
const (
	StatusForbidden = 0
	StatusNormal    = 1
)

// 知识资源处理状态
const (
	KnStateEmpty      = "empty"
	KnStatePending    = "pending"
	KnStateProcessing = "processing"
	KnStateReady      = "ready"
	KnStateFailed     = "failed"
)

// KnStates 全部合法的资源状态
var KnStates = []string{
	KnStateEmpty,
	KnStatePending,
	KnStateProcessing,
	KnStateReady,
	KnStateFailed,
}

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 20

	// 模板uuid起始值
	StartUUID int64 = 5000
	// 排序号起始值
	StartSortno int64 = 1
	// 全量构建模板缓存的最大条数
	MaxCacheLimit = 1000
)
