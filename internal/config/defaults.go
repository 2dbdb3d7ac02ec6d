package config

// Defaults returns the baseline configuration. The fuzzy threshold and
// working-set size are empirically chosen values carried over from
// production use; change them in the config file, not here.
func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Telegram: TelegramConfig{
			Token:     "${MEDIABOT_TOKEN}",
			ParseMode: "HTML",
		},
		Database: DatabaseConfig{
			URI:              "mongodb://localhost:27017",
			Name:             "mediabot",
			MaxPoolSize:      20,
			OpTimeoutSeconds: 10,
		},
		Search: SearchConfig{
			PageSize:        10,
			FuzzyThreshold:  0.4,
			FuzzyCandidates: 1000,
			CacheTTLSeconds: 600,
		},
		Delivery: DeliveryConfig{
			ContentTTLSeconds: 3600,
			PromoTTLSeconds:   300,
			NoticeTTLSeconds:  10,
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Endpoint: "127.0.0.1:9090",
		},
	}
}
