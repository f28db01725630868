package util

import (
	"strconv"

	snowflake "github.com/yockii/snowflake_ext"
)

// KnoPrefix 知识库编号前缀
const KnoPrefix = "kn_"

var idGenerator *snowflake.Worker

// InitNode 初始化ID生成器
func InitNode(nodeID uint64) error {
	var err error
	idGenerator, err = snowflake.NewSnowflake(nodeID)
	if err != nil {
		return err
	}
	return nil
}

// NewID 生成新的ID
func NewID() uint64 {
	return idGenerator.NextId()
}

// NewKno 生成知识库编号 kn_<base36>
func NewKno() string {
	return KnoPrefix + strconv.FormatUint(NewID(), 36)
}
