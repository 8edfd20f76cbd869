package builtin

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func newGenerateUUIDTool() *tool {
	return newTool(
		"generate_uuid",
		"Generate a random UUID (v4).",
		json.RawMessage(`{"type":"object","properties":{}}`),
		func(_ json.RawMessage) (string, error) {
			return uuid.NewString(), nil
		},
	)
}

func newHashTextTool() *tool {
	return newTool(
		"hash_text",
		"Hash text with md5, sha1, sha256, or sha512 (default sha256).",
		json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"},"algorithm":{"type":"string","enum":["md5","sha1","sha256","sha512"]}},"required":["text"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				Text      string `json:"text"`
				Algorithm string `json:"algorithm"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			algo := strings.ToLower(args.Algorithm)
			if algo == "" {
				algo = "sha256"
			}
			var sum []byte
			switch algo {
			case "md5":
				h := md5.Sum([]byte(args.Text))
				sum = h[:]
			case "sha1":
				h := sha1.Sum([]byte(args.Text))
				sum = h[:]
			case "sha256":
				h := sha256.Sum256([]byte(args.Text))
				sum = h[:]
			case "sha512":
				h := sha512.Sum512([]byte(args.Text))
				sum = h[:]
			default:
				return "", fmt.Errorf("unsupported algorithm %q (use md5/sha1/sha256/sha512)", args.Algorithm)
			}
			return fmt.Sprintf("%s: %s", algo, hex.EncodeToString(sum)), nil
		},
	)
}

var celsiusConverters = map[string]func(float64) float64{
	"C": func(v float64) float64 { return v },
	"F": func(v float64) float64 { return (v - 32) * 5 / 9 },
	"K": func(v float64) float64 { return v - 273.15 },
}

var fromCelsiusConverters = map[string]func(float64) float64{
	"C": func(c float64) float64 { return c },
	"F": func(c float64) float64 { return c*9/5 + 32 },
	"K": func(c float64) float64 { return c + 273.15 },
}

func newConvertTemperatureTool() *tool {
	return newTool(
		"convert_temperature",
		"Convert a temperature between Celsius, Fahrenheit, and Kelvin.",
		json.RawMessage(`{"type":"object","properties":{"value":{"type":"number"},"from_unit":{"type":"string","enum":["C","F","K","c","f","k"]},"to_unit":{"type":"string","enum":["C","F","K","c","f","k"]}},"required":["value","from_unit","to_unit"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				Value    float64 `json:"value"`
				FromUnit string  `json:"from_unit"`
				ToUnit   string  `json:"to_unit"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			from := strings.ToUpper(args.FromUnit)
			to := strings.ToUpper(args.ToUnit)
			toC, ok := celsiusConverters[from]
			if !ok {
				return "", fmt.Errorf("unsupported unit %q (use C/F/K)", args.FromUnit)
			}
			fromC, ok := fromCelsiusConverters[to]
			if !ok {
				return "", fmt.Errorf("unsupported unit %q (use C/F/K)", args.ToUnit)
			}
			result := fromC(toC(args.Value))
			return fmt.Sprintf("%s%s = %.2f%s", formatFloat(args.Value), from, result, to), nil
		},
	)
}

var metersPerUnit = map[string]float64{
	"m":     1,
	"km":    1000,
	"cm":    0.01,
	"mm":    0.001,
	"mile":  1609.34,
	"yard":  0.9144,
	"feet":  0.3048,
	"inch":  0.0254,
}

func newConvertLengthTool() *tool {
	return newTool(
		"convert_length",
		"Convert a length between m, km, cm, mm, mile, yard, feet, and inch.",
		json.RawMessage(`{"type":"object","properties":{"value":{"type":"number"},"from_unit":{"type":"string"},"to_unit":{"type":"string"}},"required":["value","from_unit","to_unit"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				Value    float64 `json:"value"`
				FromUnit string  `json:"from_unit"`
				ToUnit   string  `json:"to_unit"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			from := strings.ToLower(args.FromUnit)
			to := strings.ToLower(args.ToUnit)
			fromFactor, ok := metersPerUnit[from]
			if !ok {
				return "", fmt.Errorf("unsupported unit %q (supported: m, km, cm, mm, mile, yard, feet, inch)", args.FromUnit)
			}
			toFactor, ok := metersPerUnit[to]
			if !ok {
				return "", fmt.Errorf("unsupported unit %q (supported: m, km, cm, mm, mile, yard, feet, inch)", args.ToUnit)
			}
			meters := args.Value * fromFactor
			result := meters / toFactor
			return fmt.Sprintf("%s%s = %.4f%s", formatFloat(args.Value), from, result, to), nil
		},
	)
}
