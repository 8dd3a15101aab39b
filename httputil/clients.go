package httputil

import (
	"net/http"
	"time"
)

// Clients groups the HTTP clients by the latency profile of what they talk
// to. Uploads get no overall deadline; a large photo on a slow uplink can
// legitimately take minutes, and per-request contexts still bound them.
type Clients struct {
	API     *http.Client // listings service, small JSON bodies
	Extract *http.Client // extraction API, slow model-backed responses
	Upload  *http.Client // media host, long-running multipart bodies
}

func NewClients() *Clients {
	return &Clients{
		API:     &http.Client{Timeout: 15 * time.Second},
		Extract: &http.Client{Timeout: 30 * time.Second},
		Upload:  &http.Client{},
	}
}
