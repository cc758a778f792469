package utils

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response with status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// JSONMsg writes {"msg": "..."} with a given status.
func JSONMsg(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"msg": msg})
}

// InternalError hides the failure behind the generic message; callers log
// the detail server-side.
func InternalError(w http.ResponseWriter) {
	JSONMsg(w, http.StatusInternalServerError, "Internal server Error")
}

// DecodeJSON parses the JSON body into v. An unparseable body is reported as
// a validation failure on the body itself.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		JSON(w, http.StatusUnprocessableEntity, FieldErrors{{Param: "body", Msg: "Invalid JSON body"}})
		return err
	}
	return nil
}
