// Package ui holds the colours and tables shared by the terminal reports
package ui

import (
	"fmt"

	"github.com/pterm/pterm"
)

// DarkTheme switches every style to its light variant.
var DarkTheme bool

type style struct {
	normal func(a ...any) string
	light  func(a ...any) string
}

func (s style) paint(a any) string {
	if DarkTheme {
		return s.light(a)
	}

	return s.normal(a)
}

var (
	heading = style{normal: pterm.Blue, light: pterm.LightBlue}
	value   = style{normal: pterm.Green, light: pterm.LightGreen}
	missed  = style{normal: pterm.Red, light: pterm.LightRed}
)

// Heading styles a section title.
func Heading(a any) string {
	return heading.paint(a)
}

// Value styles a reported figure.
func Value(a any) string {
	return value.paint(a)
}

// Days formats a streak length. A zero streak is shown as missed.
func Days(n int) string {
	s := fmt.Sprintf("%d days", n)
	if n == 1 {
		s = "1 day"
	}

	if n == 0 {
		return missed.paint(s)
	}

	return value.paint(s)
}
