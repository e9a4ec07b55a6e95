package recovery

import (
	"encoding/json"
	"errors"
)

// parseFailure describes why a standard parse failed. Diagnostic only: it
// feeds observer notes and never affects control flow.
type parseFailure struct {
	Offset int64
	Msg    string
}

func (f *parseFailure) Error() string { return f.Msg }

// parseObject attempts a standard JSON parse of text into a generic object.
// Shape coercion is deliberately deferred to the normalizer, so any
// top-level JSON object succeeds here regardless of field types.
func parseObject(text string) (map[string]any, *parseFailure) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		f := &parseFailure{Msg: err.Error()}
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			f.Offset = syn.Offset
		}
		var typ *json.UnmarshalTypeError
		if errors.As(err, &typ) {
			f.Offset = typ.Offset
		}
		return nil, f
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &parseFailure{Msg: "top-level value is not an object"}
	}
	return obj, nil
}
