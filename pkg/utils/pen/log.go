package pen

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// InitLog configures the process-wide logger. An empty level keeps info.
func InitLog(level ...string) error {
	styles := log.DefaultStyles()
	log.SetOutput(os.Stderr)
	log.SetFormatter(log.TextFormatter)
	log.SetStyles(styles)
	log.SetReportTimestamp(true)
	log.SetLevel(log.InfoLevel)

	if len(level) == 0 || level[0] == "" {
		return nil
	}
	lvl, err := log.ParseLevel(level[0])
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level[0], err)
	}
	log.SetLevel(lvl)
	return nil
}
