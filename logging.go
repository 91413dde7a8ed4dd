package schematic2bls

import (
	"fmt"
	"io"
	"log"

	"github.com/natefinch/lumberjack"
)

// LogConfig configures where log messages go.
type LogConfig struct {
	Logfile string `toml:"logfile" yaml:"logfile"`
	MaxSize int    `toml:"max_log_size" yaml:"max_log_size"`
	MaxAge  int    `toml:"max_log_age" yaml:"max_log_age"`
}

// SetLogger sends log messages to a rotating log file if
// one is configured. The returned Closer closes the file.
func (c *LogConfig) SetLogger() io.Closer {
	if c == nil || c.Logfile == "" {
		return nopCloser{}
	}
	fmt.Printf("Sending log messages to: %s\n", c.Logfile)
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize, // megabytes
		MaxAge:   c.MaxAge,  // days
	}
	log.SetOutput(l)
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}
