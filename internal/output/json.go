package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
)

func newEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}

// JSON writes data as indented JSON.
func JSON(w io.Writer, data any) error {
	if err := newEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ErrorResponse is the JSON envelope for a failed command.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// JSONError writes an ErrorResponse. Write failures are ignored.
func JSONError(w io.Writer, code, msg string, details map[string]any) {
	_ = newEncoder(w).Encode(ErrorResponse{Error: msg, Code: code, Details: details})
}

// ErrorJSON writes err as an ErrorResponse. Errors without a code are
// reported as INTERNAL_ERROR.
func ErrorJSON(w io.Writer, err error) {
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		JSONError(w, cliErr.Code, cliErr.Message, cliErr.Details)
		return
	}
	JSONError(w, clierr.InternalError, err.Error(), nil)
}

// BatchResult is the outcome for one ID of a comma-separated batch.
type BatchResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// NewBatchResult records the result of operating on id.
func NewBatchResult(id string, err error) BatchResult {
	if err == nil {
		return BatchResult{ID: id, OK: true}
	}
	res := BatchResult{ID: id, Error: err.Error(), Code: clierr.CodeOf(err)}
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		res.Error = cliErr.Message
	}
	return res
}
