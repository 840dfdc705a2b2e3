package config

const (
	DefaultWhitelistPath      = "~/.metricgate/whitelist.conf"
	DefaultBlockedMetricsPath = "~/.metricgate/blocked_metrics"
)
