package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Tioit-Wang/fk.todo/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// writeResult emits a command's JSON envelope on the app's writers.
func writeResult(c *cli.Command, res iojson.Result) error {
	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, res)
}

// timestampLayouts are the accepted wall-clock formats, tried in order.
// Layouts without a zone are interpreted in local time.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp converts a user-supplied time to epoch seconds. Plain
// integers pass through as epoch seconds directly.
func parseTimestamp(value string) (int64, error) {
	if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
		return ts, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time %q (want RFC3339, \"2006-01-02 15:04\", or epoch seconds)", value)
}
