// Package report prints user-facing messages at the command-line boundary
package report

import (
	"os"

	"github.com/pterm/pterm"

	"github.com/ayoisaiah/watchlog/internal/osutil"
)

func EventsRecorded(n int) {
	pterm.Success.Printfln("%d events recorded", n)
}

func Error(err error) {
	pterm.Error.Println(err)
}

func Quit(err error) {
	pterm.Error.Println(err)
	os.Exit(int(osutil.ExitError))
}
