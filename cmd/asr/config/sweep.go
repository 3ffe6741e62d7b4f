package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"
)

// sweepConf configures the periodic reverification sweep that downgrades
// tier-2 entities past their deadline.
type sweepConf struct {
	Enabled  bool                    `yaml:"enabled"`
	Interval duration.DurationOption `yaml:"interval"`
}

func (c *sweepConf) validate() error {
	if c.Enabled && c.Interval.Duration() <= 0 {
		return errors.New("error in sweep conf: interval must be positive")
	}
	return nil
}

var defaultSweepConf = sweepConf{
	Enabled:  true,
	Interval: duration.DurationOption(time.Hour),
}
