package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/isdelr/ender-tasks/internal/api/response"
)

// Error bodies shared by several handlers.
const (
	msgInvalidBody = "invalid request body"
	msgInternal    = "internal server error"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse = response.ErrorResponse

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	response.JSON(w, status, v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	response.Error(w, status, msg)
}

// decodeBody decodes a JSON request body into v. It reports false for an
// empty body so callers can answer with their own validation message.
func decodeBody(r *http.Request, v interface{}) (present bool, err error) {
	if r.Body == nil {
		return false, nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return true, err
	}
	return true, nil
}
