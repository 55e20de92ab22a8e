package ui

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
)

// Table writes data to w as a boxed table. The first row is the header.
func Table(w io.Writer, data [][]string) error {
	str, err := pterm.DefaultTable.
		WithBoxed().
		WithHasHeader().
		WithData(data).
		Srender()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, str)

	return err
}
