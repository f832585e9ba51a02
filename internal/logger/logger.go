package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// New builds a JSON logger writing to stdout and, when file is set, to file
// as well. The returned closer releases the file.
func New(level, file string) (zerolog.Logger, io.Closer, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		lvl = parsed
	}

	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), os.ModePerm); err != nil {
			return zerolog.Nop(), nil, err
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		out = zerolog.MultiLevelWriter(os.Stdout, f)
		closer = f
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), closer, nil
}

// nopCloser is the closer returned when logging only to stdout.
type nopCloser struct{}

// Close does nothing.
func (nopCloser) Close() error { return nil }
