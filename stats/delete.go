package stats

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/ayoisaiah/watchlog/store"
)

// Clear deletes every record stored for date. It lists the records and
// asks for confirmation before removing them permanently, unless force is
// set.
func Clear(
	db store.DB,
	date string,
	force bool,
	stdin io.Reader,
	stdout io.Writer,
) (int, error) {
	if err := checkDay(date); err != nil {
		return 0, err
	}

	records, err := db.ListByDate(date)
	if err != nil {
		return 0, err
	}

	if len(records) == 0 {
		return 0, nil
	}

	if !force {
		if err := PrintRecords(stdout, records); err != nil {
			return 0, err
		}

		warning := pterm.Warning.Sprint(
			"The above records will be deleted permanently. Press ENTER to proceed",
		)

		fmt.Fprint(stdout, warning)

		reader := bufio.NewReader(stdin)

		_, _ = reader.ReadString('\n')
	}

	return db.DeleteForDate(date)
}
