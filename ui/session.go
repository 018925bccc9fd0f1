package ui

import (
	"github.com/drivedesk/DriveDesk/common"
	"github.com/drivedesk/DriveDesk/config"
	"github.com/drivedesk/DriveDesk/cookies"
)

// CookieFile opens the shared cookie file described by conf. Sealing uses
// a keyring service shared by every packaged variant.
func CookieFile(conf config.Config) *cookies.File {
	var vault *cookies.Vault
	if conf.EncryptCookies {
		vault = cookies.NewVault(common.SharedName)
	}
	return cookies.NewFile(conf.CookieFile, vault)
}

// NewSession creates the jar and its persister for conf.
func NewSession(conf config.Config) (*cookies.Jar, *cookies.Persister) {
	jar := cookies.NewJar()
	return jar, cookies.NewPersister(jar, CookieFile(conf), conf.TrackedDomains)
}
