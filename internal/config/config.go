package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Log    LogConfig    `toml:"log"`
	Limits LimitsConfig `toml:"limits"`
	Inputs InputsConfig `toml:"inputs"`
	Match  MatchConfig  `toml:"match"`
	Recon  ReconConfig  `toml:"recon"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
	// RunLog 是否把运行记录写入 SQLite
	RunLog bool `toml:"run_log"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `toml:"level"`
	Encoding string `toml:"encoding"`
}

// LimitsConfig 上传与限流
type LimitsConfig struct {
	MaxUploadMB       int     `toml:"max_upload_mb"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// InputsConfig 输入文件读取默认值
type InputsConfig struct {
	InventoryHeaderRow int    `toml:"inventory_header_row"`
	ReturnsSheet       string `toml:"returns_sheet"`
	Encoding           string `toml:"encoding"`
}

// MatchConfig 表头匹配
type MatchConfig struct {
	// FuzzyMaxDistance 模糊匹配允许的最大编辑距离，0 表示关闭
	FuzzyMaxDistance int `toml:"fuzzy_max_distance"`
}

// ReconConfig 对账行为
type ReconConfig struct {
	BrandSubtotals bool `toml:"brand_subtotals"`
	// ResultTTL 会话结果保留分钟数
	ResultTTL int `toml:"result_ttl"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
	// Path 实际读取的配置文件，未找到时为空
	Path string
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
			RunLog:  true,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Limits: LimitsConfig{
			MaxUploadMB:       64,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Inputs: InputsConfig{
			InventoryHeaderRow: 1,
			ReturnsSheet:       "Sheet1",
			Encoding:           "utf-8",
		},
		Match: MatchConfig{
			FuzzyMaxDistance: 0,
		},
		Recon: ReconConfig{
			BrandSubtotals: false,
			ResultTTL:      30,
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func baseDir() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		return "."
	}
	return exeDir
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 与 .env 加载配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFromDir(baseDir())
}

// LoadFromDir 从指定目录加载 .env 与 config.toml，最后应用 RECON_* 环境变量覆盖
func LoadFromDir(dir string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{}
	config := DefaultConfig()

	// .env 不覆盖已存在的环境变量
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, info, err
	}

	configPath := filepath.Join(dir, "config.toml")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.Path = configPath
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if applyEnv(config) {
		info.PortSpecified = true
	}
	return config, info, nil
}

// applyEnv 应用环境变量覆盖，返回端口是否被指定
func applyEnv(config *AppConfig) bool {
	portSet := false
	if v := os.Getenv("RECON_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			config.Server.Port = p
			portSet = true
		}
	}
	if v := os.Getenv("RECON_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("RECON_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
	return portSet
}

// LoadConfig 从 config.toml 加载配置
// 配置文件位于可执行文件同目录下
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(baseDir(), "config.toml"), data, 0644)
}

// ResolveDataDir 数据目录：绝对路径原样使用，相对路径基于 base
func ResolveDataDir(config *AppConfig, base string) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	return filepath.Join(base, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录存在
// 相对路径的数据目录位于可执行文件同目录下
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config, baseDir())
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 批处理默认输出目录
	if err := os.MkdirAll(filepath.Join(dataDir, "exports"), 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// MaxUploadBytes 单次请求允许的最大上传字节数
func (c *AppConfig) MaxUploadBytes() int64 {
	mb := c.Limits.MaxUploadMB
	if mb <= 0 {
		mb = DefaultConfig().Limits.MaxUploadMB
	}
	return int64(mb) << 20
}
