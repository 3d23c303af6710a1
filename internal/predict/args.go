package predict

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

// ErrTooFewArgs is returned when prompts are spliced into an argument list
// that has no room for them.
var ErrTooFewArgs = errors.New("argument list needs at least 2 entries for prompt and negative prompt")

type Kind int

const (
	Null Kind = iota
	String
	Int
	Float
	Bool
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Arg is a single positional argument of a predict call.
type Arg struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

func NullArg() Arg { return Arg{kind: Null} }
func StringArg(s string) Arg { return Arg{kind: String, s: s} }
func IntArg(i int64) Arg { return Arg{kind: Int, i: i} }
func FloatArg(f float64) Arg { return Arg{kind: Float, f: f} }
func BoolArg(b bool) Arg { return Arg{kind: Bool, b: b} }
func (a Arg) Kind() Kind { return a.kind }
func (a Arg) IsNull() bool { return a.kind == Null }
func (a Arg) StringValue() string { return a.s }
func (a Arg) IntValue() int64 { return a.i }
func (a Arg) FloatValue() float64 { return a.f }
func (a Arg) BoolValue() bool { return a.b }

// Value returns the argument as nil, string, int64, float64 or bool.
func (a Arg) Value() any {
	switch a.kind {
	case String:
		return a.s
	case Int:
		return a.i
	case Float:
		return a.f
	case Bool:
		return a.b
	}
	return nil
}

func (a Arg) String() string {
	switch a.kind {
	case String:
		return strconv.Quote(a.s)
	case Int:
		return strconv.FormatInt(a.i, 10)
	case Float:
		return formatFloat(a.f)
	case Bool:
		return strconv.FormatBool(a.b)
	}
	return "null"
}

func (a Arg) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case String:
		return json.Marshal(a.s)
	case Float:
		if math.IsNaN(a.f) || math.IsInf(a.f, 0) {
			return nil, fmt.Errorf("unsupported float argument %v", a.f)
		}
	}
	return []byte(a.String()), nil
}

func (a *Arg) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch v := v.(type) {
	case nil:
		*a = NullArg()
	case string:
		*a = StringArg(v)
	case bool:
		*a = BoolArg(v)
	case json.Number:
		s := v.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				*a = IntArg(i)
				return nil
			}
		}
		f, err := v.Float64()
		if err != nil {
			return err
		}
		*a = FloatArg(f)
	default:
		return fmt.Errorf("unsupported argument type %T", v)
	}
	return nil
}

// formatFloat keeps a fraction or exponent so the value reads back as a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	return lo.Ternary(strings.ContainsAny(s, ".eEIN"), s, s+".0")
}

type Args []Arg

// Values returns the plain Go value of every argument.
func (as Args) Values() []any {
	return lo.Map(as, func(a Arg, _ int) any {
		return a.Value()
	})
}

var stripper = strings.NewReplacer("\r", "", "\n", "", "[", "", "]", "")

// Tokenize turns a comma separated literal list, usually the "data" array
// copied from a browser's network inspector, into typed arguments. It never
// fails: anything that is not recognisably typed is kept as a string.
//
// Fragments are classified in order: null, anything containing a double
// quote (a string with the quotes removed), int64, finite float64,
// true/false in any case, and finally a plain string.
func Tokenize(raw string) Args {
	fragments := strings.Split(stripper.Replace(raw), ",")
	return lo.Map(fragments, func(f string, _ int) Arg {
		return classify(strings.TrimSpace(f))
	})
}

func classify(f string) Arg {
	if f == "null" {
		return NullArg()
	}
	if strings.Contains(f, `"`) {
		return StringArg(strings.ReplaceAll(f, `"`, ""))
	}
	if i, err := strconv.ParseInt(f, 10, 64); err == nil {
		return IntArg(i)
	}
	if v, err := strconv.ParseFloat(f, 64); err == nil && plainNumber(f) && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return FloatArg(v)
	}
	if strings.EqualFold(f, "true") || strings.EqualFold(f, "false") {
		return BoolArg(strings.EqualFold(f, "true"))
	}
	return StringArg(f)
}

// plainNumber rejects Go-only literal syntax that strconv accepts: digit
// separators and hex mantissas.
func plainNumber(f string) bool {
	if strings.Contains(f, "_") {
		return false
	}
	f = strings.TrimLeft(f, "+-")
	return !strings.HasPrefix(f, "0x") && !strings.HasPrefix(f, "0X")
}

// TokenizeWithPrompts tokenizes raw and replaces the first two arguments with
// the prompt and negative prompt. Web UIs built on the usual txt2img layout
// take those two first.
func TokenizeWithPrompts(raw, prompt, negativePrompt string) (Args, error) {
	args := Tokenize(raw)
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewArgs, len(args))
	}
	args[0] = StringArg(prompt)
	args[1] = StringArg(negativePrompt)
	return args, nil
}
