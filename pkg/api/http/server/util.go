package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

// mapCode returns the http status for a submission return code. Accepted
// work is 200, everything else maps to the closest client error.
func mapCode(code structs.ReturnCode) int {
	switch code {
	case structs.CodeSuccess, structs.CodeInQueue, structs.CodeExisted:
		return http.StatusOK
	case structs.CodeNotFound:
		return http.StatusNotFound
	case structs.CodeValidationError, structs.CodeBannedPrompt:
		return http.StatusBadRequest
	case structs.CodeQueueRejected:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func unmarshalQuery(w http.ResponseWriter, r *http.Request, out *structs.TaskQuery) error {
	q := r.URL.Query()

	if q.Has("limit") {
		limit, err := strconv.Atoi(q.Get("limit"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return fmt.Errorf("bad limit: %v", err)
		}
		out.Limit = limit
	}

	if q.Has("offset") {
		offset, err := strconv.Atoi(q.Get("offset"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return fmt.Errorf("bad offset: %v", err)
		}
		out.Offset = offset
	}

	if q.Has("ids") {
		out.IDs = q["ids"]
	}
	if q.Has("statuses") {
		out.Statuses = []structs.Status{}
		for _, s := range q["statuses"] {
			st := structs.ToStatus(s)
			if st == "" {
				http.Error(w, "bad status", http.StatusBadRequest)
				return fmt.Errorf("bad status: %v", s)
			}
			out.Statuses = append(out.Statuses, st)
		}
	}
	if q.Has("actions") {
		out.Actions = []structs.Action{}
		for _, a := range q["actions"] {
			act := structs.ToAction(a)
			if act == "" {
				http.Error(w, "bad action", http.StatusBadRequest)
				return fmt.Errorf("bad action: %v", a)
			}
			out.Actions = append(out.Actions, act)
		}
	}

	out.Sanitize()
	return nil
}

// unmarshalJson reads the body of a request and attempts to unmarshal it
// into the given object.
func unmarshalJson(r *http.Request, obj interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no body")
	}
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields() // catch unwanted fields

	if err := d.Decode(obj); err != nil {
		return fmt.Errorf("bad json: %v", err)
	}
	return nil
}

func writeJson(w http.ResponseWriter, obj interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
