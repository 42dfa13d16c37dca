package mockreg

import (
	"bytes"

	"github.com/rs/zerolog"
)

// tbWriter forwards log lines to the test log.
type tbWriter struct {
	t TestingT
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Logf("%s", bytes.TrimRight(p, "\n"))
	return len(p), nil
}

func newTestLogger(t TestingT) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:          tbWriter{t},
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}).Level(zerolog.DebugLevel)
}
