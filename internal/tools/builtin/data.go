package builtin

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
)

func newFormatJSONTool() *tool {
	return newTool(
		"format_json",
		"Pretty-print a JSON string with two-space indentation.",
		json.RawMessage(`{"type":"object","properties":{"json_string":{"type":"string"}},"required":["json_string"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				JSONString string `json:"json_string"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, []byte(args.JSONString), "", "  "); err != nil {
				return "", fmt.Errorf("could not parse JSON: %w", err)
			}
			return buf.String(), nil
		},
	)
}

func newBase64EncodeTool() *tool {
	return newTool(
		"base64_encode",
		"Base64-encode a piece of text.",
		json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				Text string `json:"text"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			return base64.StdEncoding.EncodeToString([]byte(args.Text)), nil
		},
	)
}

func newBase64DecodeTool() *tool {
	return newTool(
		"base64_decode",
		"Decode a Base64-encoded string.",
		json.RawMessage(`{"type":"object","properties":{"encoded_text":{"type":"string"}},"required":["encoded_text"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				EncodedText string `json:"encoded_text"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			decoded, err := base64.StdEncoding.DecodeString(args.EncodedText)
			if err != nil {
				return "", fmt.Errorf("could not decode Base64: %w", err)
			}
			return string(decoded), nil
		},
	)
}

func newURLEncodeTool() *tool {
	return newTool(
		"url_encode",
		"URL-encode a piece of text.",
		json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				Text string `json:"text"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			return url.QueryEscape(args.Text), nil
		},
	)
}

func newURLDecodeTool() *tool {
	return newTool(
		"url_decode",
		"Decode a URL-encoded string.",
		json.RawMessage(`{"type":"object","properties":{"encoded_text":{"type":"string"}},"required":["encoded_text"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				EncodedText string `json:"encoded_text"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			decoded, err := url.QueryUnescape(args.EncodedText)
			if err != nil {
				return "", fmt.Errorf("could not decode: %w", err)
			}
			return decoded, nil
		},
	)
}
