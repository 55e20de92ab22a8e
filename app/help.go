package app

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/ayoisaiah/watchlog/internal/pathutil"
)

const repoURL = "https://github.com/ayoisaiah/watchlog"

func section(title, body string) string {
	return fmt.Sprintf("%s\n%s\n\n", pterm.Yellow(title), body)
}

func helpText() string {
	var b strings.Builder

	b.WriteString(section("DESCRIPTION", "\t\t{{.Usage}}"))
	b.WriteString(
		section(
			"USAGE",
			"\t\t{{.HelpName}} {{if .UsageText}}{{ .UsageText }}{{end}}",
		),
	)
	b.WriteString("{{if .Version}}" + section("VERSION", "\t\t{{.Version}}") + "{{end}}")

	b.WriteString(section(
		"COMMANDS",
		fmt.Sprintf(
			"{{range .Commands}}{{if not .HideHelp}}   %s{{ `\t`}}{{.Usage}}{{ `\n` }}{{end}}{{end}}",
			pterm.Green("{{join .Names `, `}}"),
		),
	))

	b.WriteString(section(
		"GLOBAL OPTIONS",
		fmt.Sprintf(
			"{{range .VisibleFlags}}\t\t{{if .Aliases}}{{range $element := .Aliases}}%s,{{end}}{{end}} %s\n\t\t\t\t{{.Usage}}\n{{end}}",
			pterm.Green("-{{$element}}"),
			pterm.Green("--{{.Name}} {{.DefaultText}}"),
		),
	))

	b.WriteString(section("ENVIRONMENT", envHelp()))
	b.WriteString(section("FILES", filesHelp()))
	b.WriteString(section("WEBSITE", "\t\t"+repoURL))

	return b.String()
}

func envHelp() string {
	return strings.Join([]string{
		"\t\tWATCHLOG_NO_COLOR, NO_COLOR: set to any value to disable coloured output.",
		"\t\tWATCHLOG_ENV: keep a separate config file, database and log under this name (e.g. WATCHLOG_ENV=test).",
	}, "\n")
}

func filesHelp() string {
	return strings.Join([]string{
		"\t\tconfig:  " + pathutil.ConfigFilePath(),
		"\t\tbolt:    " + pathutil.BoltFilePath(),
		"\t\tsqlite:  " + pathutil.SQLiteFilePath(),
		"\t\tlog:     " + pathutil.LogFilePath(),
	}, "\n")
}
