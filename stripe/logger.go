package stripe

import (
	stripeapi "github.com/stripe/stripe-go/v81"
	"go.vocdoni.io/dvote/log"
)

// leveledLogger routes stripe-go's internal logging to the service logger.
type leveledLogger struct{}

var _ stripeapi.LeveledLoggerInterface = leveledLogger{}

func (leveledLogger) Debugf(format string, v ...any) { log.Debugf("stripe: "+format, v...) }
func (leveledLogger) Infof(format string, v ...any)  { log.Debugf("stripe: "+format, v...) }
func (leveledLogger) Warnf(format string, v ...any)  { log.Warnf("stripe: "+format, v...) }
func (leveledLogger) Errorf(format string, v ...any) { log.Warnf("stripe: "+format, v...) }
