package catalog

import (
	"net/url"
	"strings"
)

const timelessTodayHost = "timelesstoday.tv"

// OutboundURL returns the link a click should open. Links to the Timeless
// Today site lose their "www." prefix, which the site does not serve; every
// other link is returned untouched.
func OutboundURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if !strings.EqualFold(u.Hostname(), "www."+timelessTodayHost) {
		return raw
	}
	host := timelessTodayHost
	if port := u.Port(); port != "" {
		host += ":" + port
	}
	u.Host = host
	return u.String()
}
