package log

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// NewDiagnostics returns the logger handed to the parser and the remote
// clients. Output is plain text with full timestamps.
func NewDiagnostics(level string, w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		DisableSorting:   false,
		QuoteEmptyFields: true,
	})
	return logger, nil
}
