package browser

import "math/rand"

// Profile is the fingerprint one session presents: a real desktop browser
// signature paired with UK locale, timezone, and geolocation. Picked once
// per session, never per navigation.
type Profile struct {
	UserAgent      string
	Viewport       Viewport
	AcceptLanguage string
	Locale         string
	Timezone       string
	Latitude       float64
	Longitude      float64
}

// Viewport is a browser window size in CSS pixels.
type Viewport struct {
	Width  int64
	Height int64
}

// userAgents is a pool of real desktop browser signatures.
var userAgents = []string{
	// Windows Chrome
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	// Mac Safari
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	// Mac Chrome
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	// Windows Firefox
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	// Mac Firefox
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
	// Linux Chrome
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

var viewports = []Viewport{
	{Width: 1920, Height: 1080},
	{Width: 1366, Height: 768},
	{Width: 1440, Height: 900},
	{Width: 1536, Height: 864},
}

const (
	acceptLanguage = "en-GB,en;q=0.9,en-US;q=0.8"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	profileLocale   = "en-GB"
	profileTimezone = "Europe/London"

	// London
	profileLatitude  = 51.5074
	profileLongitude = -0.1278
)

func randomProfile() Profile {
	return Profile{
		UserAgent:      userAgents[rand.Intn(len(userAgents))],
		Viewport:       viewports[rand.Intn(len(viewports))],
		AcceptLanguage: acceptLanguage,
		Locale:         profileLocale,
		Timezone:       profileTimezone,
		Latitude:       profileLatitude,
		Longitude:      profileLongitude,
	}
}

// stealthScript runs before any page script and masks the markers headless
// Chrome leaks: the webdriver flag, empty plugin and language lists, the
// missing chrome runtime object, and the permissions API behaving
// differently under automation.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', {
	get: () => undefined
});

Object.defineProperty(navigator, 'plugins', {
	get: () => [
		{ name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer' },
		{ name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai' },
		{ name: 'Native Client', filename: 'internal-nacl-plugin' }
	]
});

Object.defineProperty(navigator, 'languages', {
	get: () => ['en-GB', 'en', 'en-US']
});

const originalQuery = window.navigator.permissions.query;
window.navigator.permissions.query = (parameters) => (
	parameters.name === 'notifications' ?
		Promise.resolve({ state: Notification.permission }) :
		originalQuery(parameters)
);

if (!window.chrome) {
	window.chrome = {};
}
window.chrome.runtime = {};

navigator.connection = {
	effectiveType: '4g',
	rtt: 50,
	downlink: 10,
	saveData: false
};

delete navigator.__proto__.webdriver;

Object.defineProperty(window.performance, 'memory', {
	value: {
		totalJSHeapSize: 50000000,
		usedJSHeapSize: 40000000,
		jsHeapSizeLimit: 2000000000
	}
});
`
