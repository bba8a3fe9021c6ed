package api

import (
	"encoding/json"
	"io"
	"net/http"

	"estate_hub/models"
)

const maxJSONBytes = 1 << 20

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Status: "success",
		Data:   data,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func Error(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Status:  "error",
		Message: msg,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// Failure writes err with the status code of its reason and its user-facing message.
func Failure(w http.ResponseWriter, err error) {
	reason := models.ReasonOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(reason))

	resp := APIResponse{
		Status:  "error",
		Message: models.Message(err),
		Reason:  string(reason),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func StatusFor(reason models.Reason) int {
	switch reason {
	case models.ReasonValidation:
		return http.StatusBadRequest
	case models.ReasonUnauthenticated:
		return http.StatusUnauthorized
	case models.ReasonPermission:
		return http.StatusForbidden
	case models.ReasonNotFound:
		return http.StatusNotFound
	case models.ReasonConflict:
		return http.StatusConflict
	case models.ReasonNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes)).Decode(dest)
}

// readPatch reads a JSON body and checks that it decodes into a value like
// shape. The caller merges the returned bytes later, under its own lock.
func readPatch(w http.ResponseWriter, r *http.Request, shape any) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, shape); err != nil {
		return nil, err
	}
	return body, nil
}
