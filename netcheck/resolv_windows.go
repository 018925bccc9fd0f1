//go:build windows

package netcheck

// Windows keeps resolvers per adapter; the public server is queried and the
// system resolver covers networks where it is unreachable.
func systemServers() []string {
	return nil
}
