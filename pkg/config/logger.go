package config

import (
	"mochibot/pkg/logger"
)

// LoggerSettings converts the logger section to logger.Config.
func (c *Config) LoggerSettings() *logger.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lc := c.Logger
	return &logger.Config{
		Level:            logger.Level(lc.Level),
		OutputPath:       expandPath(lc.OutputPath),
		MaxSize:          lc.MaxSize,
		MaxBackups:       lc.MaxBackups,
		MaxAge:           lc.MaxAge,
		Compress:         lc.Compress,
		Development:      lc.Development,
		EnableCaller:     true,
		EnableStacktrace: !lc.Development,
	}
}
