package monitor

import "time"

const (
	defaultRefreshInterval = 2 * time.Minute
	detailsMaxLines        = 6
)
