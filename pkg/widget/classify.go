package widget

import (
	"github.com/tidwall/gjson"
)

// imageKeys are checked in order; the first one present names the image.
var imageKeys = []string{"image", "chart", "visualization", "plot"}

// Classification is the result of inspecting an answer.
type Classification struct {
	Type  Type
	Rows  []map[string]any
	Image string
	Error string
}

// Classify decides how an answer renders. Only answers that are a JSON object
// get a structured type:
//
//	{"error": ...}          -> error
//	{"data": [...]}         -> table
//	{"image"|"chart"|...}   -> image
//	anything else           -> text
func Classify(answer string) Classification {
	if !gjson.Valid(answer) {
		return Classification{Type: TypeText}
	}

	doc := gjson.Parse(answer)
	if !doc.IsObject() {
		return Classification{Type: TypeText}
	}

	if e := doc.Get("error"); e.Exists() {
		msg := e.String()
		if e.IsObject() {
			msg = e.Get("message").String()
		}
		if msg == "" {
			msg = DefaultErrorMessage
		}
		return Classification{Type: TypeError, Error: msg}
	}

	if data := doc.Get("data"); data.IsArray() {
		return Classification{Type: TypeTable, Rows: rows(data)}
	}

	for _, key := range imageKeys {
		if img := doc.Get(key); img.Exists() {
			return Classification{Type: TypeImage, Image: img.String()}
		}
	}

	return Classification{Type: TypeText}
}

// rows converts a JSON array to table rows. Scalar elements become a single
// "value" column.
func rows(data gjson.Result) []map[string]any {
	out := []map[string]any{}
	data.ForEach(func(_, el gjson.Result) bool {
		if m, ok := el.Value().(map[string]any); ok {
			out = append(out, m)
		} else {
			out = append(out, map[string]any{"value": el.Value()})
		}
		return true
	})
	return out
}
