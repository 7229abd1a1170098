// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by outbound service clients that do not need their
// own timeout.
var HTTPClient = &http.Client{
	Timeout: 60 * time.Second,
}
