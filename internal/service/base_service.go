package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-sql-driver/mysql"
	"github.com/yockii/knorm/internal/constant"
	"github.com/yockii/knorm/internal/metrics"
	"github.com/yockii/knorm/internal/model"
	"github.com/yockii/knorm/pkg/logger"
	"gorm.io/gorm"
)

type BaseService[T model.Model] struct {
	db     *gorm.DB
	entity string
}

func NewBaseService[T model.Model](db *gorm.DB, entity string) *BaseService[T] {
	return &BaseService[T]{
		db:     db,
		entity: entity,
	}
}

func (s *BaseService[T]) NewModel() T {
	var t T
	tType := reflect.TypeOf(t)

	// 如果 T 是指针类型，则需要创建指针指向的对象
	if tType.Kind() == reflect.Ptr {
		tType = tType.Elem()
		return reflect.New(tType).Interface().(T)
	}

	return reflect.New(tType).Elem().Interface().(T)
}

// GetByID 按主键查询，软删除的记录视为不存在
func (s *BaseService[T]) GetByID(ctx context.Context, id uint64) (T, error) {
	if id == 0 {
		var zero T
		return zero, constant.ErrRecordIDEmpty
	}
	record := s.NewModel()
	if err := s.db.WithContext(ctx).First(record, "id = ?", id).Error; err != nil {
		var zero T
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, fmt.Errorf("%w: %s[%d]", constant.ErrRecordNotFound, s.entity, id)
		}
		logger.Error("查询记录失败", logger.F("entity", s.entity), logger.F("id", id), logger.F("error", err))
		return zero, err
	}
	return record, nil
}

// exists 按条件判断是否存在记录
func (s *BaseService[T]) exists(query *gorm.DB) (bool, error) {
	var count int64
	if err := query.Model(s.NewModel()).Count(&count).Error; err != nil {
		logger.Error("查询记录总数失败", logger.F("entity", s.entity), logger.F("error", err))
		return false, err
	}
	return count > 0, nil
}

// create 插入记录，唯一键冲突转换为 ErrRecordDuplicate
func (s *BaseService[T]) create(ctx context.Context, record T, key string) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if isDuplicateError(err) {
			return s.conflict(key)
		}
		logger.Error("创建记录失败", logger.F("entity", s.entity), logger.F("error", err))
		return err
	}
	return nil
}

func (s *BaseService[T]) conflict(key string) error {
	metrics.ConflictTotal.WithLabelValues(s.entity).Inc()
	return fmt.Errorf("%w: %s", constant.ErrRecordDuplicate, key)
}

// updateColumn 按主键更新单列，影响行数大于0即成功
func (s *BaseService[T]) updateColumn(ctx context.Context, id uint64, column string, value interface{}) (bool, error) {
	if id == 0 {
		return false, constant.ErrRecordIDEmpty
	}
	result := s.db.WithContext(ctx).Model(s.NewModel()).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		logger.Error("更新记录失败", logger.F("entity", s.entity), logger.F("column", column), logger.F("error", result.Error))
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// nextValue 取 MAX(column)+1，范围内无记录时返回 start
func (s *BaseService[T]) nextValue(query *gorm.DB, column string, start int64) (int64, error) {
	var current sql.NullInt64
	if err := query.Model(s.NewModel()).Select("MAX(" + column + ")").Row().Scan(&current); err != nil {
		logger.Error("查询序列最大值失败", logger.F("entity", s.entity), logger.F("column", column), logger.F("error", err))
		return 0, err
	}
	if !current.Valid {
		return start, nil
	}
	return current.Int64 + 1, nil
}

// paginate 统计总数后按偏移分页
func (s *BaseService[T]) paginate(query *gorm.DB, pq PageQuery, orders ...string) (*PageResult[T], error) {
	page, pageSize := pq.normalize()
	base := query.Model(s.NewModel()).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		logger.Error("查询记录总数失败", logger.F("entity", s.entity), logger.F("error", err))
		return nil, err
	}

	list := make([]T, 0)
	if total > int64((page-1)*pageSize) {
		find := base
		for _, order := range orders {
			find = find.Order(order)
		}
		if err := find.Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
			logger.Error("查询记录失败", logger.F("entity", s.entity), logger.F("error", err))
			return nil, err
		}
	}

	return &PageResult[T]{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		List:     list,
	}, nil
}

func isDuplicateError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
