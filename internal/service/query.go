package service

import (
	"strings"

	"github.com/yockii/knorm/internal/constant"
	"gorm.io/gorm"
)

// PageQuery 通用分页参数
type PageQuery struct {
	Page     int    `json:"page" query:"page"`
	PageSize int    `json:"pageSize" query:"pageSize"`
	Keywords string `json:"keywords" query:"keywords"`
}

func (q PageQuery) normalize() (int, int) {
	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = constant.DefaultPageNumber
	}
	if pageSize < 1 {
		pageSize = constant.DefaultPageSize
	}
	return page, pageSize
}

// PageResult 分页结果
type PageResult[T any] struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
	List     []T   `json:"list"`
}

type matchMode int

const (
	matchContains matchMode = iota
	matchPrefix
	matchEqual
)

// keywordRule 关键词在某列上的匹配方式
type keywordRule struct {
	column string
	mode   matchMode
	value  interface{}
}

func contains(column string) keywordRule {
	return keywordRule{column: column, mode: matchContains}
}

func prefix(column string) keywordRule {
	return keywordRule{column: column, mode: matchPrefix}
}

func equal(column string, value interface{}) keywordRule {
	return keywordRule{column: column, mode: matchEqual, value: value}
}

// keywordsCondition 关键词展开为一组 OR 条件，再与其他条件 AND
func keywordsCondition(query *gorm.DB, keywords string, rules ...keywordRule) *gorm.DB {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" || len(rules) == 0 {
		return query
	}
	clauses := make([]string, 0, len(rules))
	args := make([]interface{}, 0, len(rules))
	for _, rule := range rules {
		switch rule.mode {
		case matchPrefix:
			clauses = append(clauses, rule.column+" LIKE ?")
			args = append(args, keywords+"%")
		case matchEqual:
			clauses = append(clauses, rule.column+" = ?")
			args = append(args, rule.value)
		default:
			clauses = append(clauses, rule.column+" LIKE ?")
			args = append(args, "%"+keywords+"%")
		}
	}
	return query.Where("("+strings.Join(clauses, " OR ")+")", args...)
}
