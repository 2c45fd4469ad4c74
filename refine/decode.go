// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package refine

import (
	"encoding/json"
	"fmt"
	"strings"
)

const fence = "```"

// StripFences removes a fenced-code wrapper, with or without a language tag,
// from a reply. Only a fence that opens before the JSON body counts as a
// wrapper; fences inside string values are left alone. Text without a
// wrapper is returned trimmed.
func StripFences(reply string) string {
	s := strings.TrimSpace(reply)
	start := strings.Index(s, fence)
	if start < 0 {
		return s
	}
	if body := strings.IndexAny(s, "{["); body >= 0 && body < start {
		return s
	}
	body := s[start+len(fence):]
	// Drop the language tag line, e.g. "json".
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	if end := strings.LastIndex(body, fence); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// decodeReply decodes reply into v. The fence-stripped text is decoded
// strictly first; on failure the repaired text is tried.
func decodeReply(reply string, v any) error {
	body := StripFences(reply)
	err := json.Unmarshal([]byte(body), v)
	if err == nil {
		return nil
	}
	if repaired := repairJSON(body); repaired != body {
		if json.Unmarshal([]byte(repaired), v) == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %w", ErrMalformedReply, err)
}

// rawText is the fallback form of an undecodable reply: fence-stripped and
// with surrounding quotes removed.
func rawText(reply string) string {
	s := StripFences(reply)
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// unescapeContent turns literal escape sequences left in model prose into the
// characters they stand for.
func unescapeContent(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, `\n`, "\n"))
	return strings.ReplaceAll(s, `\"`, `"`)
}

// repairJSON fixes formatting slips common in model output: prose around
// the object, bare object keys missing their opening quote, and trailing
// commas before a closing brace or bracket.
func repairJSON(s string) string {
	if first, last := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); first >= 0 && last > first {
		s = s[first : last+1]
	}
	return dropTrailingCommas(quoteBareKeys(s))
}

// quoteBareKeys inserts the missing opening quote in keys such as
// `{name": "x"}` or `, address":`.
func quoteBareKeys(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)
	inString := false

	for i := 0; i < len(in); i++ {
		ch := in[i]
		out = append(out, ch)
		if ch == '"' && !escaped(in, i) {
			inString = !inString
			continue
		}
		if inString || (ch != '{' && ch != ',') {
			continue
		}

		j := i + 1
		for j < len(in) && isSpace(in[j]) {
			out = append(out, in[j])
			j++
		}
		k := j
		for k < len(in) && (isLetter(in[k]) || in[k] == '_') {
			k++
		}
		if k > j && k+1 < len(in) && in[k] == '"' && in[k+1] == ':' {
			out = append(out, '"')
			out = append(out, in[j:k]...)
			out = append(out, '"', ':')
			i = k + 1
			continue
		}
		i = j - 1
	}
	return string(out)
}

// dropTrailingCommas removes commas that directly precede } or ].
func dropTrailingCommas(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in))
	inString := false

	for i := 0; i < len(in); i++ {
		ch := in[i]
		if ch == '"' && !escaped(in, i) {
			inString = !inString
		}
		if ch == ',' && !inString {
			j := i + 1
			for j < len(in) && isSpace(in[j]) {
				j++
			}
			if j < len(in) && (in[j] == '}' || in[j] == ']') {
				continue
			}
		}
		out = append(out, ch)
	}
	return string(out)
}

// escaped reports whether the rune at i is preceded by an odd number of
// backslashes.
func escaped(s []rune, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
