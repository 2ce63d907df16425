package logger

// LogHarvestProgress logs how far a harvest has come towards its target
func LogHarvestProgress(l Logger, query string, found, skipped, target int) {
	l.WithFields(map[string]interface{}{
		"query":   query,
		"found":   found,
		"skipped": skipped,
		"target":  target,
	}).Debug("Harvest progress")
}

// LogFetch logs the outcome of fetching one harvested reference
func LogFetch(l Logger, label, reference string, err error) {
	l = l.WithFields(map[string]interface{}{
		"label":     label,
		"reference": reference,
	})

	if err != nil {
		l.WithError(err).Warn("Image fetch failed")
		return
	}
	l.Debug("Image fetched")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, settings map[string]interface{}) {
	l = l.WithField("component", component)
	if len(settings) > 0 {
		l = l.WithFields(settings)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string)                                   {}
func (nopLogger) Info(string)                                    {}
func (nopLogger) Warn(string)                                    {}
func (nopLogger) Error(string)                                   {}
func (n nopLogger) WithField(string, interface{}) Logger         { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger     { return n }
func (n nopLogger) WithError(error) Logger                       { return n }
func (nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (nopLogger) ErrorWithFields(string, map[string]interface{}) {}
