package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformed    = errors.New("malformed event")
	ErrMissingField = errors.New("missing required field")
)

// requiredFields lists, per event type, the fields that must be present and
// non-null. Dotted entries refer to a field of a nested object.
var requiredFields = map[Type][]string{
	TypeAllSuites: {"count"},
	TypeSuite:     {"suite", "suite.id"},
	TypeGroup:     {"group", "group.id", "group.suiteID"},
	TypeTestStart: {"test", "test.id", "test.suiteID"},
	TypeTestDone:  {"testID", "result"},
}

// Decode decodes a single line of reporter output.
// Lines with an unknown type decode to *Unknown.
func Decode(line []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var base Base
	if err := json.Unmarshal(line, &base); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !present(fields, "type") {
		return nil, fmt.Errorf("%w: type", ErrMissingField)
	}

	for _, name := range requiredFields[base.Kind] {
		ok, err := hasField(fields, name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s event: %v", ErrMalformed, base.Kind, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s event: %s", ErrMissingField, base.Kind, name)
		}
	}

	var ev Event
	switch base.Kind {
	case TypeStart:
		ev = &StartEvent{}
	case TypeAllSuites:
		ev = &AllSuitesEvent{}
	case TypeSuite:
		ev = &SuiteEvent{}
	case TypeDebug:
		ev = &DebugEvent{}
	case TypeGroup:
		ev = &GroupEvent{}
	case TypeTestStart:
		ev = &TestStartEvent{}
	case TypePrint:
		ev = &PrintEvent{}
	case TypeError:
		ev = &ErrorEvent{}
	case TypeTestDone:
		ev = &TestDoneEvent{}
	case TypeDone:
		ev = &DoneEvent{}
	default:
		return &Unknown{Base: base}, nil
	}

	if err := json.Unmarshal(line, ev); err != nil {
		return nil, fmt.Errorf("%w: %s event: %v", ErrMalformed, base.Kind, err)
	}
	return ev, nil
}

func present(fields map[string]json.RawMessage, name string) bool {
	raw, ok := fields[name]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func hasField(fields map[string]json.RawMessage, path string) (bool, error) {
	outer, inner, nested := strings.Cut(path, ".")
	if !present(fields, outer) {
		return false, nil
	}
	if !nested {
		return true, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(fields[outer], &obj); err != nil {
		return false, fmt.Errorf("%s: %w", outer, err)
	}
	return present(obj, inner), nil
}
