package config

import (
	"reflect"
	"strings"
)

// Get 按点分路径读取配置项, 例如 "research.default_citation_style"。
// 路径段匹配字段的 yaml tag; 找不到时返回 (nil, false)。
func (c *Config) Get(path string) (any, bool) {
	v := reflect.ValueOf(c).Elem()
	for _, part := range strings.Split(path, ".") {
		if v.Kind() != reflect.Struct {
			return nil, false
		}
		field, ok := fieldByYAMLTag(v, part)
		if !ok {
			return nil, false
		}
		v = field
	}
	return v.Interface(), true
}

// GetString 是 Get 的字符串便捷版本, 类型不符时返回 fallback。
func (c *Config) GetString(path, fallback string) string {
	val, ok := c.Get(path)
	if !ok {
		return fallback
	}
	s, ok := val.(string)
	if !ok {
		return fallback
	}
	return s
}

func fieldByYAMLTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		tag := t.Field(i).Tag.Get("yaml")
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}
