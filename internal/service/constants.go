package service

const (
	// Time windows
	DefaultChartDays    = 90
	EFCurrentPeriodDays = 7
	EFTrendCompareDays  = 28
	RecentAdaptations   = 10

	// Pattern snapshot writes retried on version conflict
	PatternWriteAttempts = 3

	// Decoupling cache
	megabyte                 = 1024 * 1024
	decouplingCacheSize      = 8 * megabyte
	decouplingCacheExpirySec = 60 * 60
)
