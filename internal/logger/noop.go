package logger

// Discard drops every record. Fatal and Fatalf do not exit.
var Discard Logger = discard{}

type discard struct{}

func (discard) Debug(string, map[string]interface{}) {}
func (discard) Info(string, map[string]interface{}) {}
func (discard) Warn(string, map[string]interface{}) {}
func (discard) Error(string, map[string]interface{}) {}
func (discard) Fatal(string, map[string]interface{}) {}

func (discard) Debugf(string, ...interface{}) {}
func (discard) Infof(string, ...interface{}) {}
func (discard) Warnf(string, ...interface{}) {}
func (discard) Errorf(string, ...interface{}) {}
func (discard) Fatalf(string, ...interface{}) {}

func (d discard) WithField(string, interface{}) Logger { return d }
func (d discard) WithFields(map[string]interface{}) Logger { return d }
func (discard) Sync() error { return nil }
