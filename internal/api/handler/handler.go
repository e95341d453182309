// Package handler implements the HTTP endpoints on top of the stats service
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mcoot/territorybattle/internal/api/apierr"
)

// maxBodyBytes bounds request bodies; game_data is the only open-ended field
const maxBodyBytes = 1 << 20

// decode reads a JSON request body into dst. An empty body decodes as {}.
func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apierr.NewInvalidRequestError("Invalid request body")
}
