package webutils

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
)

func WriteFileHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
}

func WriteFile(w http.ResponseWriter, in io.Reader, name string) {
	WriteFileHeaders(w, name)
	if _, err := io.Copy(w, in); err != nil {
		log.Printf("[web] Error when writing file %q: %v", name, err)
	}
}

func WriteJson(w http.ResponseWriter, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		WriteError(w, err)
	} else {
		w.Header().Set("Content-Type", "application/json")
		WriteResult(w, res)
	}
}

func WriteResult(w http.ResponseWriter, data []byte) {
	_, err := w.Write(data)
	if err != nil {
		log.Printf("[web] Error when writing response: %v", err)
	}
}

func WriteError(w http.ResponseWriter, err error) {
	WriteErrorCode(w, http.StatusInternalServerError, err)
}

// WriteErrorCode answers {"error": "..."} with the given http status.
func WriteErrorCode(w http.ResponseWriter, code int, err error) {
	type jError struct {
		Error string `json:"error"`
	}
	data, merr := json.Marshal(&jError{Error: err.Error()})
	if merr != nil {
		log.Printf("[web] Error marshaling error '%v': %v", err, merr)
		w.WriteHeader(code)
		return
	}
	log.Printf("[web] HERR %d: %v", code, string(data))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	WriteResult(w, data)
}
