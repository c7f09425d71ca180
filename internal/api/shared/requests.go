package shared

import (
	"encoding/json"
	"net/http"
)

// DecodeJSON decodes the request body into v. Validation of the decoded
// struct is the handler's job; this only covers the JSON syntax layer.
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
