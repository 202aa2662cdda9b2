package backend

import "net/http"

// httpUserAgentRoundTripper sets the User-Agent header of outgoing requests.
type httpUserAgentRoundTripper struct {
	userAgent string
	rt        http.RoundTripper
}

func newCustomUserAgentRoundTripper(rt http.RoundTripper, userAgent string) *httpUserAgentRoundTripper {
	return &httpUserAgentRoundTripper{
		rt:        rt,
		userAgent: userAgent,
	}
}

func (c *httpUserAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", c.userAgent)
	return c.rt.RoundTrip(req)
}
