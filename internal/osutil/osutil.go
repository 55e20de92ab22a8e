package osutil

import "io/fs"

const Windows = "windows"

type exitCode int

const (
	ExitOK    exitCode = 0
	ExitError exitCode = 1
)

const (
	DirPermission  fs.FileMode = 0o755
	FilePermission fs.FileMode = 0o600
)
