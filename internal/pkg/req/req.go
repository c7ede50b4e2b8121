/*
Package req provides helpers for HTTP request parsing and data binding.

It wraps JSON body decoding with strict validation (unknown fields and
trailing content are rejected) so handlers only see well-formed input.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"communityhub/internal/pkg/errs"
)

// MaxBodyBytes is the maximum accepted size of a JSON request body.
const MaxBodyBytes int64 = 1 << 20 // 1 MB

// BindJSON binds the JSON request body to the destination struct dst.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
