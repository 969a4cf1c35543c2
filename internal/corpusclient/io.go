package corpusclient

import (
	"io"
	"net/http"
)

func readAll(resp *http.Response) ([]byte, error) {
	return io.ReadAll(resp.Body)
}
