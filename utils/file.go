package utils

import (
	"os"
	"path/filepath"
	"unicode/utf8"
)

// 确保目录存在
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// 检查文件是否存在
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// 创建文件及其目录
func CreateFile(path string) (*os.File, error) {
	err := EnsureDir(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	return os.Create(path)
}

// TruncateRunes 按字符截断
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// TailRunes 保留末尾字符
func TailRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[len(runes)-max:])
}
