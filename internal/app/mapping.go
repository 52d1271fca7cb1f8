package app

import (
	"github.com/GoJackzi/zama-news-bot/internal/config"
	"github.com/GoJackzi/zama-news-bot/internal/dispatch"
	"github.com/GoJackzi/zama-news-bot/internal/pipeline"
	"github.com/GoJackzi/zama-news-bot/internal/scheduler"
	"github.com/GoJackzi/zama-news-bot/internal/store"
	"github.com/GoJackzi/zama-news-bot/internal/transport/telegram"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

// The mapping helpers translate the file config into component configs.
// Durations stay zero when unset; every component fills its own default.

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapTelegramConfig(cfg *config.Config) (telegram.Config, error) {
	timeout, err := config.ParseDurationField("telegram.timeout", cfg.Telegram.Timeout)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{
		Token:   cfg.Telegram.Token,
		Channel: cfg.Telegram.Channel,
		Timeout: timeout,
	}, nil
}

func mapStoreConfig(cfg *config.Config) (store.Config, error) {
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return store.Config{}, err
	}
	return store.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, nil
}

func mapDispatchConfig(cfg *config.Config) (dispatch.Config, error) {
	interval, err := config.ParseDurationField("dispatch.message_interval", cfg.Dispatch.MessageInterval)
	if err != nil {
		return dispatch.Config{}, err
	}
	base, err := config.ParseDurationField("dispatch.retry_base", cfg.Dispatch.RetryBase)
	if err != nil {
		return dispatch.Config{}, err
	}
	maxDelay, err := config.ParseDurationField("dispatch.retry_max_delay", cfg.Dispatch.RetryMaxDelay)
	if err != nil {
		return dispatch.Config{}, err
	}
	return dispatch.Config{
		MessageInterval: interval,
		RetryMax:        cfg.Dispatch.RetryMax,
		RetryBase:       base,
		RetryMaxDelay:   maxDelay,
	}, nil
}

func mapSchedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	interval, err := config.ParseDurationField("poll.interval", cfg.Poll.Interval)
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{Interval: interval}, nil
}

func mapPipelineConfig(cfg *config.Config) (pipeline.Config, error) {
	retention, err := config.ParseDurationField("storage.retention", cfg.Storage.Retention)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{Retention: retention}, nil
}
