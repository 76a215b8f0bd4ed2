package store

import (
	"database/sql"
	"fmt"
	"strconv"
)

// GetConfig 获取配置项
func (s *Store) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("config key not found: %s", key)
		}
		return "", err
	}
	return value, nil
}

// GetConfigInt 获取整数配置项
func (s *Store) GetConfigInt(key string) (int, error) {
	value, err := s.GetConfig(key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// SetConfig 设置配置项
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	return err
}

// SetConfigInt 设置整数配置项
func (s *Store) SetConfigInt(key string, value int) error {
	return s.SetConfig(key, strconv.Itoa(value))
}

// GetAllConfig 获取所有配置项
func (s *Store) GetAllConfig() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM config")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	config := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		config[key] = value
	}

	return config, rows.Err()
}

// 最近一次使用的读取选项
const (
	KeyInventoryHeaderRow = "last_inventory_header_row"
	KeyReturnsSheet       = "last_returns_sheet"
	KeyEncoding           = "last_encoding"
)

// InputDefaults 最近一次使用的读取选项
type InputDefaults struct {
	InventoryHeaderRow int
	ReturnsSheet       string
	Encoding           string
}

// GetInputDefaults 读取最近一次使用的读取选项，缺失的项保持 fallback 中的值
func (s *Store) GetInputDefaults(fallback InputDefaults) InputDefaults {
	out := fallback
	if v, err := s.GetConfigInt(KeyInventoryHeaderRow); err == nil && v >= 0 {
		out.InventoryHeaderRow = v
	}
	if v, err := s.GetConfig(KeyReturnsSheet); err == nil && v != "" {
		out.ReturnsSheet = v
	}
	if v, err := s.GetConfig(KeyEncoding); err == nil && v != "" {
		out.Encoding = v
	}
	return out
}

// SetInputDefaults 记录本次使用的读取选项
func (s *Store) SetInputDefaults(d InputDefaults) error {
	if err := s.SetConfigInt(KeyInventoryHeaderRow, d.InventoryHeaderRow); err != nil {
		return err
	}
	if err := s.SetConfig(KeyReturnsSheet, d.ReturnsSheet); err != nil {
		return err
	}
	return s.SetConfig(KeyEncoding, d.Encoding)
}
