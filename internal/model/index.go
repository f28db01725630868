package model

import (
	"fmt"
	"time"

	"github.com/yockii/knorm/pkg/logger"
	"github.com/yockii/knorm/pkg/util"
	"gorm.io/gorm"
)

type Model interface {
	TableComment() string
	GetID() uint64
}

type BaseModel struct {
	ID        uint64    `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

func (b *BaseModel) TableComment() string {
	return "基础模型"
}

func (b *BaseModel) GetID() uint64 {
	return b.ID
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == 0 {
		b.ID = util.NewID()
	}
	return nil
}

var models []Model

// Models 已注册的全部模型
func Models() []Model {
	return models
}

// AutoMigrate 按数据库类型建表，mysql/postgres 附带表注释
func AutoMigrate(db *gorm.DB, dbType string) error {
	switch dbType {
	case "mysql":
		migrator := db.Migrator()
		for _, m := range models {
			if !migrator.HasTable(m) {
				if err := db.Set("gorm:table_options", fmt.Sprintf("ENGINE=innoDB DEFAULT CHARSET=utf8mb4 COMMENT='%s'", m.TableComment())).AutoMigrate(m); err != nil {
					logger.Error("自动迁移表失败", logger.F("error", err))
					return err
				}
			} else if err := migrator.AutoMigrate(m); err != nil {
				logger.Error("自动迁移表失败", logger.F("error", err))
				return err
			}
		}
	case "postgres":
		if err := db.AutoMigrate(modelList()...); err != nil {
			logger.Error("自动迁移表失败", logger.F("error", err))
			return err
		}
		// 添加表注释
		for _, m := range models {
			stmt := &gorm.Statement{DB: db}
			if err := stmt.Parse(m); err != nil {
				logger.Error("解析模型失败", logger.F("error", err))
				continue
			}
			if err := db.Exec(fmt.Sprintf("COMMENT ON TABLE %s IS '%s'", stmt.Table, m.TableComment())).Error; err != nil {
				logger.Error("添加表注释失败", logger.F("error", err))
			}
		}
	case "sqlite":
		if err := db.AutoMigrate(modelList()...); err != nil {
			logger.Error("自动迁移表失败", logger.F("error", err))
			return err
		}
	default:
		logger.Error("不支持的数据库类型", logger.F("type", dbType))
		return fmt.Errorf("unsupported database type: %s", dbType)
	}
	return nil
}

func modelList() []interface{} {
	list := make([]interface{}, 0, len(models))
	for _, m := range models {
		list = append(list, m)
	}
	return list
}
