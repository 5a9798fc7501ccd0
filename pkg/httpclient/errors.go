package httpclient

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 64 << 10

// errorBody covers the error shapes the marketplace API produces: FastAPI's
// {"detail": "..."}, the {"error": {"code","message"}} envelope and a bare
// {"message": "..."}.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ReadErrorDetail consumes and closes the body of a non-2xx response and
// returns the human readable message it carries, or "" when there is none.
func ReadErrorDetail(resp *http.Response) string {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body errorBody
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}

	if len(body.Detail) > 0 {
		var detail string
		if json.Unmarshal(body.Detail, &detail) == nil {
			return strings.TrimSpace(detail)
		}
		// FastAPI validation errors: [{"msg": "..."}]
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(body.Detail, &items) == nil && len(items) > 0 {
			return strings.TrimSpace(items[0].Msg)
		}
	}
	if body.Error != nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return body.Message
}
