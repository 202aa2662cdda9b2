package debug

import "net/http"

// secretHeaders are replaced before a request is written to the debug log.
// S3 signs requests in Authorization; temporary credentials add a session
// token header.
var secretHeaders = []string{
	"Authorization",
	"X-Amz-Security-Token",
}

func redactHeader(header http.Header) map[string][]string {
	removedHeaders := make(map[string][]string)
	for _, hdr := range secretHeaders {
		origHeader, hasHeader := header[hdr]
		if hasHeader {
			removedHeaders[hdr] = origHeader
			header[hdr] = []string{"**redacted**"}
		}
	}
	return removedHeaders
}

func restoreHeader(header http.Header, origHeaders map[string][]string) {
	for hdr, val := range origHeaders {
		header[hdr] = val
	}
}
