package model

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// ChatMessage 预置对话消息，content 可以是文本或多模态数组
type ChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
	Name    string      `json:"name,omitempty"`
}

// ParseJSON 尽力解析JSON文本，为空或非法时返回nil
func ParseJSON(text string) interface{} {
	if text == "" || !gjson.Valid(text) {
		return nil
	}
	return gjson.Parse(text).Value()
}

// ParseChatMessages 解析预置消息数组，非数组时返回nil
func ParseChatMessages(text string) []ChatMessage {
	if text == "" || !gjson.Valid(text) {
		return nil
	}
	result := gjson.Parse(text)
	if !result.IsArray() {
		return nil
	}
	messages := make([]ChatMessage, 0)
	result.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			messages = append(messages, ChatMessage{
				Role:    item.Get("role").String(),
				Content: item.Get("content").Value(),
				Name:    item.Get("name").String(),
			})
		}
		return true
	})
	return messages
}

// ToJSONText 结构化值转JSON文本，nil 返回空串
func ToJSONText(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
