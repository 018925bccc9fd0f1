//go:build windows

package ui

import _ "embed"

// the Windows tray wants ICO data
//
//go:embed build/appicon.ico
var trayIcon []byte
