package builtin

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

func newCountCharactersTool() *tool {
	return newTool(
		"count_characters",
		"Count characters, words, and lines in a piece of text.",
		json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"},"include_spaces":{"type":"boolean","description":"Defaults to true"}},"required":["text"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				Text          string `json:"text"`
				IncludeSpaces *bool  `json:"include_spaces"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			includeSpaces := args.IncludeSpaces == nil || *args.IncludeSpaces
			total := len([]rune(args.Text))
			noSpace := len([]rune(strings.NewReplacer(" ", "", "\n", "", "\t", "").Replace(args.Text)))
			words := len(strings.Fields(args.Text))
			lines := strings.Count(args.Text, "\n") + 1

			charCount := total
			if !includeSpaces {
				charCount = noSpace
			}
			return fmt.Sprintf("characters: %d\ncharacters (no spaces): %d\nwords: %d\nlines: %d", charCount, noSpace, words, lines), nil
		},
	)
}

func newTextCaseTool() *tool {
	return newTool(
		"text_case",
		"Convert text case: upper, lower, title, or capitalize.",
		json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"},"case_type":{"type":"string","enum":["upper","lower","title","capitalize"]}},"required":["text","case_type"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				Text     string `json:"text"`
				CaseType string `json:"case_type"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			switch strings.ToLower(args.CaseType) {
			case "upper":
				return strings.ToUpper(args.Text), nil
			case "lower":
				return strings.ToLower(args.Text), nil
			case "title":
				return strings.Title(strings.ToLower(args.Text)), nil
			case "capitalize":
				if args.Text == "" {
					return args.Text, nil
				}
				lower := strings.ToLower(args.Text)
				return strings.ToUpper(lower[:1]) + lower[1:], nil
			default:
				return "", fmt.Errorf("unsupported case_type %q (use upper/lower/title/capitalize)", args.CaseType)
			}
		},
	)
}

func newSearchTextTool() *tool {
	return newTool(
		"search_text",
		"Search text for a regular expression pattern and return the matches.",
		json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"},"pattern":{"type":"string"},"case_sensitive":{"type":"boolean","description":"Defaults to false"}},"required":["text","pattern"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				Text          string `json:"text"`
				Pattern       string `json:"pattern"`
				CaseSensitive bool   `json:"case_sensitive"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			pattern := args.Pattern
			if !args.CaseSensitive {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return "", fmt.Errorf("invalid regular expression: %w", err)
			}
			matches := re.FindAllString(args.Text, -1)
			if len(matches) == 0 {
				return "no matches found", nil
			}
			shown := matches
			truncated := ""
			if len(shown) > 10 {
				shown = shown[:10]
				truncated = "..."
			}
			return fmt.Sprintf("%d match(es) found: %s%s", len(matches), strings.Join(shown, ", "), truncated), nil
		},
	)
}

func newReplaceTextTool() *tool {
	return newTool(
		"replace_text",
		"Replace every occurrence of one substring with another in a piece of text.",
		json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"},"find":{"type":"string"},"replace":{"type":"string"}},"required":["text","find","replace"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				Text    string `json:"text"`
				Find    string `json:"find"`
				Replace string `json:"replace"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			if args.Find == "" {
				return "", fmt.Errorf("find must not be empty")
			}
			count := strings.Count(args.Text, args.Find)
			result := strings.ReplaceAll(args.Text, args.Find, args.Replace)
			return fmt.Sprintf("replaced %d occurrence(s)\n\n%s", count, result), nil
		},
	)
}
