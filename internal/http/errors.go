package http

import (
	"mime"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fivetwenty-io/popit/pkg/popit"
)

// newAPIError classifies a non-success response.
func newAPIError(method, reportedURL string, resp *Response) *popit.Error {
	return &popit.Error{
		Kind:       popit.KindForStatus(resp.StatusCode),
		Message:    ErrorMessage(resp.StatusCode, resp.ContentType, resp.Body),
		StatusCode: resp.StatusCode,
		Method:     method,
		URL:        reportedURL,
	}
}

// ErrorMessage picks the message for a failed response, preferring the
// body's "error" field, then its joined "errors" list, then the raw body.
// HTML and plain text pages, and empty bodies, yield the bare status code.
func ErrorMessage(statusCode int, contentType string, body []byte) string {
	status := strconv.Itoa(statusCode)

	if isTextPage(contentType) || len(strings.TrimSpace(string(body))) == 0 {
		return status
	}

	if !gjson.ValidBytes(body) {
		return string(body)
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return string(body)
	}

	if message := root.Get("error"); message.Exists() && message.String() != "" {
		return message.String()
	}

	if list := root.Get("errors"); list.IsArray() {
		var messages []string

		for _, item := range list.Array() {
			if item.String() != "" {
				messages = append(messages, item.String())
			}
		}

		if len(messages) > 0 {
			return strings.Join(messages, ", ")
		}
	}

	return string(body)
}

func isTextPage(contentType string) bool {
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == "text/html" || mediaType == "text/plain"
}
