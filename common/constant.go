package common

const (
	AppName    = "DriveDesk"
	AppID      = "com.drivedesk.iclouddrive"
	SharedName = "DriveDesk-shared"

	DefaultStartURL  = "https://www.icloud.com/iclouddrive"
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/12.1.1 Safari/605.1.15"
	DefaultScheme    = "iclouddrive"
	DefaultLocale    = "en-US"

	AuthCookieName = "X-APPLE-WEBAUTH-TOKEN"

	DefaultWidth     = 1920
	DefaultHeight    = 1080
	MinWidth         = 800
	MinHeight        = 600
	DefaultUpdateURL = "https://api.github.com/repos/drivedesk/DriveDesk/releases/latest"
	BlockedPopupURL  = "about:blank#blocked"
	DefaultDNSServer = "8.8.8.8"
)

// DefaultTrackedDomains are the cookie domains written to the shared cookie file.
var DefaultTrackedDomains = []string{".icloud.com", ".apple.com"}

// Store keys.
const (
	KeyWindowBounds = "window.bounds"
	KeyLoginItemSet = "login.registered"
)

// Internal paths served by the local page proxy.
const (
	ProxyHostPrefix   = "/__host/"
	ProxyControlPath  = "/__drive/"
	ProxyOpenPath     = "/__drive/open"
	ProxyHealthPath   = "/__drive/health"
	ProxyListenIP     = "127.0.0.1"
	ProxyInjectMarker = "data-drivedesk"
)
