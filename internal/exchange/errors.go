package exchange

import "fmt"

// HTTPError is returned when the exchange answers with a non-2xx status.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d - %s", e.Status, e.Body)
}
