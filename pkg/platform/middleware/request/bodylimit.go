package request

import (
	"mime"
	"net/http"
)

// BodyLimit caps request bodies with http.MaxBytesReader. Multipart uploads get
// uploadBytes; every other body gets jsonBytes.
func BodyLimit(jsonBytes, uploadBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := jsonBytes
			if isMultipart(r) {
				limit = uploadBytes
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
