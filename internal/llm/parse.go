package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSONObject trims any prose around the outermost JSON object.
func extractJSONObject(raw string) string {
	s := stripFences(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

// decode parses raw into T. An empty answer is Empty, anything that does not
// unmarshal is ParseError.
func decode[T any](raw string) domain.ExtractionResult[T] {
	body := extractJSONObject(raw)
	if body == "" {
		return domain.EmptyExtraction[T]()
	}

	var v T
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return domain.ExtractionFailed[T](raw, fmt.Errorf("parse model output: %w (raw: %s)", err, truncate(raw, 300)))
	}
	return domain.Extracted(v)
}

// decodeList parses raw into an envelope and unwraps its list; an empty list is Empty.
func decodeList[E any, T any](raw string, items func(E) []T) domain.ExtractionResult[[]T] {
	env := decode[E](raw)
	switch env.Kind {
	case domain.ExtractionParseError:
		return domain.ExtractionFailed[[]T](env.Raw, env.Err)
	case domain.ExtractionEmpty:
		return domain.EmptyExtraction[[]T]()
	}
	list := items(env.Value)
	if len(list) == 0 {
		return domain.EmptyExtraction[[]T]()
	}
	return domain.Extracted(list)
}

// text wraps a free-form answer.
func text(raw string) domain.ExtractionResult[string] {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.EmptyExtraction[string]()
	}
	return domain.Extracted(s)
}

var (
	schemaMu    sync.Mutex
	schemaCache = map[string]string{}
)

// schemaOf renders the JSON schema of T for the answer-format section of a prompt.
func schemaOf[T any]() string {
	var v T
	key := fmt.Sprintf("%T", v)

	schemaMu.Lock()
	defer schemaMu.Unlock()
	if s, ok := schemaCache[key]; ok {
		return s
	}

	r := jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	b, err := json.MarshalIndent(r.Reflect(v), "", "  ")
	if err != nil {
		return "{}"
	}
	schemaCache[key] = string(b)
	return schemaCache[key]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
