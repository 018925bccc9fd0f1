//go:build !windows

package ui

import _ "embed"

//go:embed build/appicon.png
var trayIcon []byte
