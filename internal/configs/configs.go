package configs

type Config struct {
	// 基础配置
	Tokens []string `json:"tokens" yaml:"tokens"` // 组合内的代币ID列表（行情源ID）
	Proxy  string   `json:"proxy" yaml:"proxy"`   // HTTP代理

	Database Database `json:"database" yaml:"database"`

	// AI 研究参数
	AIConfig AIConfig `json:"ai_config" yaml:"ai_config"`

	// 行情源配置
	MarketConfig MarketConfig `json:"market_config" yaml:"market_config"`
}

type AIConfig struct {
	Provider  string `json:"provider" yaml:"provider"`     // openai 或 deepseek
	APIKey    string `json:"api_key" yaml:"api_key"`       // AI服务API密钥
	ModelType string `json:"model_type" yaml:"model_type"` // AI模型类型
}

type Database struct {
	ConnStr string `json:"conn_str" yaml:"conn_str"` // 数据库连接字符串
}

type MarketConfig struct {
	CoinGeckoAPIKey  string `json:"coingecko_api_key" yaml:"coingecko_api_key"`   // CoinGecko API密钥，可为空
	BinanceAPIKey    string `json:"binance_api_key" yaml:"binance_api_key"`       // 币安API密钥
	BinanceSecretKey string `json:"binance_secret_key" yaml:"binance_secret_key"` // 币安密钥
}
