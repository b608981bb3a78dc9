package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Storage 检查点持久化接口
type Storage interface {
	// Save 同步落盘，返回前必须保证持久化完成
	Save(state map[string]string) error
	// Retrieve 读取全部检查点；文件不存在时返回空映射
	Retrieve() (map[string]string, error)
}

// JSONFileStorage 基于单个 JSON 文件的检查点存储
type JSONFileStorage struct {
	path string
}

// NewJSONFileStorage 创建 JSON 文件检查点存储
func NewJSONFileStorage(path string) *JSONFileStorage {
	return &JSONFileStorage{path: path}
}

// Save 先写临时文件再原子替换，避免崩溃时留下截断文件
func (s *JSONFileStorage) Save(state map[string]string) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("序列化检查点失败: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("创建临时检查点文件失败: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写入检查点失败: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("同步检查点到磁盘失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("关闭临时检查点文件失败: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("替换检查点文件失败: %w", err)
	}
	return nil
}

// Retrieve 读取检查点文件
func (s *JSONFileStorage) Retrieve() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("读取检查点文件失败: %w", err)
	}

	state := map[string]string{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("解析检查点文件失败: %w", err)
	}
	return state, nil
}
