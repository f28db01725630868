package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

var (
	config = newViper()
	once   sync.Once
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("KNORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Init 初始化配置
func Init(configFiles ...string) error {
	var err error
	once.Do(func() {
		configFile := "config.yaml"
		if len(configFiles) > 0 && configFiles[0] != "" {
			configFile = configFiles[0]
		}
		config.SetConfigFile(configFile)

		// 设置默认值
		setDefaults()

		// 读取配置文件
		if err = config.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config file failed: %w", err)
			return
		}

		// 监听配置文件变化
		config.WatchConfig()
	})
	return err
}

// setDefaults 设置默认值
func setDefaults() {
	config.SetDefault("server.port", 8080)
	config.SetDefault("server.app_name", "knorm")
	config.SetDefault("server.node_id", 1)
	config.SetDefault("server.metrics", true)

	config.SetDefault("database.type", "mysql")
	config.SetDefault("database.host", "localhost")
	config.SetDefault("database.port", 3306)
	config.SetDefault("database.user", "root")
	config.SetDefault("database.password", "root")
	config.SetDefault("database.dbname", "knorm")
	config.SetDefault("database.path", "knorm.db")
	config.SetDefault("database.max_idle_conns", 10)
	config.SetDefault("database.max_open_conns", 100)
	config.SetDefault("database.conn_max_lifetime", 3600)
	config.SetDefault("database.log_sql", false)

	config.SetDefault("log.level", "info")
	config.SetDefault("log.filename", "logs/app.log")
	config.SetDefault("log.max_size", 100)
	config.SetDefault("log.max_backups", 3)
	config.SetDefault("log.max_age", 28)
	config.SetDefault("log.compress", true)
	config.SetDefault("log.console", false)

	config.SetDefault("cache.redis.host", "localhost")
	config.SetDefault("cache.redis.port", 6379)
	config.SetDefault("cache.redis.db", 0)
	config.SetDefault("cache.redis.pool_size", 10)

	config.SetDefault("petcache.enabled", false)
	config.SetDefault("petcache.cron", "@every 5m")
	config.SetDefault("petcache.expire", 0)

	config.SetDefault("security.allowed_origins", "*")
	config.SetDefault("security.rate_limit", 60)
}

// GetString 获取字符串配置值
func GetString(key string) string {
	return config.GetString(key)
}

// GetInt 获取整数配置值
func GetInt(key string) int {
	return config.GetInt(key)
}

// GetInt64 获取64位整数配置值
func GetInt64(key string) int64 {
	return config.GetInt64(key)
}

// GetUint64 获取64位无符号整数配置值
func GetUint64(key string) uint64 {
	return config.GetUint64(key)
}

// GetBool 获取布尔配置值
func GetBool(key string) bool {
	return config.GetBool(key)
}

// Set 设置配置值
func Set(key string, value interface{}) {
	config.Set(key, value)
}

// GetDSN 获取数据库连接字符串
func GetDSN() string {
	dbType := GetString("database.type")
	switch strings.ToLower(dbType) {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			GetString("database.host"),
			GetInt("database.port"),
			GetString("database.user"),
			GetString("database.password"),
			GetString("database.dbname"),
		)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true",
			GetString("database.user"),
			GetString("database.password"),
			GetString("database.host"),
			GetInt("database.port"),
			GetString("database.dbname"),
		)
	case "sqlite":
		return GetString("database.path")
	default:
		return ""
	}
}

// GetServerAddress 获取服务器地址
func GetServerAddress() string {
	return fmt.Sprintf(":%d", GetInt("server.port"))
}

// GetRedisAddress 获取redis地址
func GetRedisAddress() string {
	return fmt.Sprintf("%s:%d", GetString("cache.redis.host"), GetInt("cache.redis.port"))
}
