package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the workers talking to remote services.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
