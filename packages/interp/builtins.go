package interp

import (
	"encoding/json"
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/introspec/packages/approx"
	"github.com/abdul-hamid-achik/introspec/packages/format"
	"github.com/abdul-hamid-achik/introspec/packages/snapshot"
)

// BuiltinFunc is one callable available to test scripts.
type BuiltinFunc func(args []any) (any, error)

// Registry holds the builtin functions. User-defined functions shadow
// builtins of the same name.
type Registry struct {
	funcs map[string]BuiltinFunc
}

// NewRegistry builds the default registry. The approx tolerance
// defaults come from configuration; zero values keep the package
// defaults.
func NewRegistry(approxRel, approxAbs float64, baseDir string) *Registry {
	r := &Registry{funcs: make(map[string]BuiltinFunc)}
	r.registerDefaults(approxRel, approxAbs, baseDir)
	return r
}

// Register adds or replaces a builtin.
func (r *Registry) Register(name string, fn BuiltinFunc) {
	r.funcs[name] = fn
}

// Lookup returns the builtin bound to name.
func (r *Registry) Lookup(name string) (BuiltinFunc, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// RegisterSnapshots binds matchesSnapshot(value, name) to a snapshot
// manager scoped to one spec file.
func (r *Registry) RegisterSnapshots(m *snapshot.Manager, specFile string) {
	r.funcs["matchesSnapshot"] = func(args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("matchesSnapshot expects 2 arguments, got %d", len(args))
		}
		name, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("matchesSnapshot: name must be a string, got %s", typeName(args[1]))
		}
		result := m.Compare(specFile, name, args[0])
		if !result.Passed && strings.HasPrefix(result.Message, "failed to") {
			return nil, fmt.Errorf("matchesSnapshot: %s", result.Message)
		}
		return result.Passed, nil
	}
}

func (r *Registry) registerDefaults(approxRel, approxAbs float64, baseDir string) {
	r.funcs["len"] = funcLen
	r.funcs["abs"] = funcAbs
	r.funcs["min"] = funcMin
	r.funcs["max"] = funcMax
	r.funcs["sum"] = funcSum
	r.funcs["range"] = funcRange
	r.funcs["str"] = funcStr
	r.funcs["upper"] = funcUpper
	r.funcs["lower"] = funcLower
	r.funcs["trim"] = funcTrim
	r.funcs["split"] = funcSplit
	r.funcs["join"] = funcJoin
	r.funcs["keys"] = funcKeys
	r.funcs["contains"] = funcContains
	r.funcs["uuid"] = funcUUID
	r.funcs["now"] = funcNow
	r.funcs["timestamp"] = funcTimestamp
	r.funcs["parseJson"] = funcParseJSON
	r.funcs["jsonpath"] = funcJSONPath
	r.funcs["matchesSchema"] = makeSchemaFunc(baseDir)
	r.funcs["approx"] = makeApproxFunc(approxRel, approxAbs)
}

// makeApproxFunc builds the approx(expected[, rel[, abs]]) constructor
// with configured tolerance defaults baked in.
func makeApproxFunc(defaultRel, defaultAbs float64) BuiltinFunc {
	return func(args []any) (any, error) {
		if len(args) < 1 || len(args) > 3 {
			return nil, fmt.Errorf("approx expects 1 to 3 arguments, got %d", len(args))
		}
		var opts []approx.Option
		if defaultRel > 0 {
			opts = append(opts, approx.WithRel(defaultRel))
		}
		if defaultAbs > 0 {
			opts = append(opts, approx.WithAbs(defaultAbs))
		}
		if len(args) >= 2 {
			rel, ok := toFloat(args[1])
			if !ok {
				return nil, fmt.Errorf("approx: relative tolerance must be a number, got %s", typeName(args[1]))
			}
			opts = append(opts, approx.WithRel(rel))
		}
		if len(args) == 3 {
			abs, ok := toFloat(args[2])
			if !ok {
				return nil, fmt.Errorf("approx: absolute tolerance must be a number, got %s", typeName(args[2]))
			}
			opts = append(opts, approx.WithAbs(abs))
		}
		return approx.New(args[0], opts...), nil
	}
}

func funcLen(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("len expects 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case string:
		return int64(len(v)), nil
	case []any:
		return int64(len(v)), nil
	case map[string]any:
		return int64(len(v)), nil
	}
	return nil, fmt.Errorf("len: cannot take length of %s", typeName(args[0]))
}

func funcAbs(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("abs expects 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case int64:
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case float64:
		return math.Abs(v), nil
	case complex128:
		return cmplx.Abs(v), nil
	}
	return nil, fmt.Errorf("abs: expected a number, got %s", typeName(args[0]))
}

func funcMin(args []any) (any, error) {
	return fold(args, "min", func(acc, x float64) float64 { return math.Min(acc, x) })
}

func funcMax(args []any) (any, error) {
	return fold(args, "max", func(acc, x float64) float64 { return math.Max(acc, x) })
}

func funcSum(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("sum expects 1 argument, got %d", len(args))
	}
	items, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("sum: expected a list, got %s", typeName(args[0]))
	}
	allInt := true
	total := 0.0
	for _, item := range items {
		f, ok := toFloat(item)
		if !ok {
			return nil, fmt.Errorf("sum: expected numbers, got %s", typeName(item))
		}
		if _, isInt := item.(int64); !isInt {
			allInt = false
		}
		total += f
	}
	if allInt {
		return int64(total), nil
	}
	return total, nil
}

func fold(args []any, name string, f func(acc, x float64) float64) (any, error) {
	items := args
	if len(args) == 1 {
		if list, ok := args[0].([]any); ok {
			items = list
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: no values", name)
	}
	acc, ok := toFloat(items[0])
	if !ok {
		return nil, fmt.Errorf("%s: expected numbers, got %s", name, typeName(items[0]))
	}
	allInt := true
	for _, item := range items {
		f2, ok := toFloat(item)
		if !ok {
			return nil, fmt.Errorf("%s: expected numbers, got %s", name, typeName(item))
		}
		if _, isInt := item.(int64); !isInt {
			allInt = false
		}
		acc = f(acc, f2)
	}
	if allInt {
		return int64(acc), nil
	}
	return acc, nil
}

func funcRange(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("range expects 1 argument, got %d", len(args))
	}
	n, ok := args[0].(int64)
	if !ok {
		return nil, fmt.Errorf("range: expected an int, got %s", typeName(args[0]))
	}
	out := make([]any, 0, n)
	for i := int64(0); i < n; i++ {
		out = append(out, i)
	}
	return out, nil
}

func funcStr(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("str expects 1 argument, got %d", len(args))
	}
	if s, ok := args[0].(string); ok {
		return s, nil
	}
	return format.Repr(args[0]), nil
}

func funcUpper(args []any) (any, error) { return stringFunc(args, "upper", strings.ToUpper) }
func funcLower(args []any) (any, error) { return stringFunc(args, "lower", strings.ToLower) }
func funcTrim(args []any) (any, error)  { return stringFunc(args, "trim", strings.TrimSpace) }

func stringFunc(args []any, name string, f func(string) string) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s expects 1 argument, got %d", name, len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("%s: expected a string, got %s", name, typeName(args[0]))
	}
	return f(s), nil
}

func funcSplit(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("split expects 2 arguments, got %d", len(args))
	}
	s, ok1 := args[0].(string)
	sep, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("split: expected strings")
	}
	parts := strings.Split(s, sep)
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out, nil
}

func funcJoin(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("join expects 2 arguments, got %d", len(args))
	}
	items, ok1 := args[0].([]any)
	sep, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("join: expected a list and a string")
	}
	parts := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			s = format.Repr(item)
		}
		parts[i] = s
	}
	return strings.Join(parts, sep), nil
}

func funcKeys(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("keys expects 1 argument, got %d", len(args))
	}
	m, ok := args[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("keys: expected a map, got %s", typeName(args[0]))
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	// Deterministic order keeps explanations reproducible.
	sort.Strings(names)
	out := make([]any, len(names))
	for i, k := range names {
		out[i] = k
	}
	return out, nil
}

func funcContains(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("contains expects 2 arguments, got %d", len(args))
	}
	switch v := args[0].(type) {
	case string:
		s, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("contains: expected a string needle")
		}
		return strings.Contains(v, s), nil
	case []any:
		for _, item := range v {
			if equal(item, args[1]) {
				return true, nil
			}
		}
		return false, nil
	case map[string]any:
		k, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("contains: expected a string key")
		}
		_, present := v[k]
		return present, nil
	}
	return nil, fmt.Errorf("contains: cannot search %s", typeName(args[0]))
}

func funcUUID(args []any) (any, error) {
	return uuid.NewString(), nil
}

func funcNow(args []any) (any, error) {
	return time.Now().UTC().Format(time.RFC3339), nil
}

func funcTimestamp(args []any) (any, error) {
	return time.Now().Unix(), nil
}

func funcParseJSON(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("parseJson expects 1 argument, got %d", len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("parseJson: expected a string, got %s", typeName(args[0]))
	}
	if !gjson.Valid(s) {
		return nil, fmt.Errorf("parseJson: invalid JSON")
	}
	return normalizeJSON(gjson.Parse(s).Value()), nil
}

func funcJSONPath(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("jsonpath expects 2 arguments, got %d", len(args))
	}
	doc, ok1 := args[0].(string)
	path, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("jsonpath: expected a JSON string and a path")
	}
	result := gjson.Get(doc, path)
	if !result.Exists() {
		return nil, nil
	}
	return normalizeJSON(result.Value()), nil
}

func makeSchemaFunc(baseDir string) BuiltinFunc {
	return func(args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("matchesSchema expects 2 arguments, got %d", len(args))
		}
		path, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("matchesSchema: expected a schema file path")
		}
		if baseDir != "" && !strings.HasPrefix(path, "/") {
			path = baseDir + "/" + path
		}
		schemaData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("matchesSchema: reading schema: %w", err)
		}
		docJSON, err := json.Marshal(args[0])
		if err != nil {
			return nil, fmt.Errorf("matchesSchema: encoding value: %w", err)
		}
		result, err := gojsonschema.Validate(
			gojsonschema.NewBytesLoader(schemaData),
			gojsonschema.NewBytesLoader(docJSON),
		)
		if err != nil {
			return nil, fmt.Errorf("matchesSchema: %w", err)
		}
		return result.Valid(), nil
	}
}

// normalizeJSON converts gjson's float-heavy value tree into the
// interpreter's native forms, keeping whole numbers integral.
func normalizeJSON(v any) any {
	switch val := v.(type) {
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return int64(val)
		}
		return val
	case []any:
		for i := range val {
			val[i] = normalizeJSON(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = normalizeJSON(val[k])
		}
		return val
	default:
		return v
	}
}
