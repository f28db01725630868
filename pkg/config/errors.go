package config

import "errors"

var (
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrInvalidDatabaseConfig = errors.New("invalid database configuration")
)

// Validate 校验启动所需的关键配置
func Validate() error {
	switch GetString("database.type") {
	case "mysql", "postgres", "sqlite":
	default:
		return ErrInvalidDatabaseConfig
	}
	if GetDSN() == "" {
		return ErrInvalidDatabaseConfig
	}
	if GetInt("server.port") <= 0 {
		return ErrInvalidConfig
	}
	return nil
}
