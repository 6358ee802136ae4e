package handlers

import "net/http"

// StatusResponse is returned by GET /.
type StatusResponse struct {
	Success bool `json:"success"`
}

// Status reports that the service is up.
func Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Success: true})
}
