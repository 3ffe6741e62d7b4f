package config

import (
	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/fileutils"

	"github.com/DeNoronha/ctn-asr-demo-sub015/internal/logger"
)

// loggingConf holds all logging-related configuration under the `logging` key.
//
// YAML example:
//
//	logging:
//	  access:
//	    dir: /var/log/asr
//	    stderr: false
//	  internal:
//	    dir: /var/log/asr
//	    stderr: false
//	    level: INFO
//	    smart:
//	      enabled: false
//	      dir: /var/log/asr/smart
type loggingConf struct {
	Access   logger.LoggerConf         `yaml:"access"`
	Internal logger.InternalLoggerConf `yaml:"internal"`
}

func checkLoggingDirExists(dir string) error {
	if dir != "" && !fileutils.FileExists(dir) {
		return errors.Errorf("logging directory '%s' does not exist", dir)
	}
	return nil
}

func (log *loggingConf) validate() error {
	if err := checkLoggingDirExists(log.Access.Dir); err != nil {
		return err
	}
	if err := checkLoggingDirExists(log.Internal.Dir); err != nil {
		return err
	}
	if log.Internal.Smart.Enabled {
		if log.Internal.Smart.Dir == "" {
			log.Internal.Smart.Dir = log.Internal.Dir
		}
		if err := checkLoggingDirExists(log.Internal.Smart.Dir); err != nil {
			return err
		}
	}
	return nil
}

var defaultLoggingConf = loggingConf{
	Internal: logger.InternalLoggerConf{
		Level: "INFO",
	},
}
