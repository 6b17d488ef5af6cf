package school

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/trezcool/kumbukumbu/core"
)

// Record kinds
const (
	KindStudent    = "student"
	KindInstructor = "instructor"
	KindCourse     = "course"
)

// ParseKind accepts a kind in any case, singular or plural.
func ParseKind(s string) (string, error) {
	switch core.CleanString(s, true /* lower */) {
	case KindStudent, KindStudent + "s":
		return KindStudent, nil
	case KindInstructor, KindInstructor + "s":
		return KindInstructor, nil
	case KindCourse, KindCourse + "s":
		return KindCourse, nil
	}
	return "", core.NewValidationError(errors.Errorf("unknown kind %q: want student, instructor or course", s))
}

// Person holds the validated fields shared by students and instructors.
// The zero value is not a valid Person; use NewPerson.
type Person struct {
	name  string
	age   int
	email string
}

type personFields struct {
	Name  string `json:"name" mapstructure:"name" validate:"notblank,personname"`
	Age   int    `json:"age" mapstructure:"age" validate:"nonneg"`
	Email string `json:"email" mapstructure:"email" validate:"emailaddr"`
}

// NewPerson validates name, age then email and fails on the first invalid one.
func NewPerson(name string, age int, email string) (Person, error) {
	if err := core.ValidateStruct(personFields{Name: name, Age: age, Email: email}); err != nil {
		return Person{}, err
	}
	return Person{name: name, age: age, email: email}, nil
}

func (p Person) Name() string  { return p.name }
func (p Person) Age() int      { return p.age }
func (p Person) Email() string { return p.email }

// SetEmail re-validates before mutating: on failure the current email is kept.
func (p *Person) SetEmail(email string) error {
	if err := core.ValidateVar("email", email, "emailaddr"); err != nil {
		return err
	}
	p.email = email
	return nil
}

func (p Person) Introduce() string {
	return fmt.Sprintf("Hello, my name is %s and I am %d years old.", p.name, p.age)
}

func (p Person) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"name":  p.name,
		"age":   p.age,
		"email": p.email,
	}
}

// PersonFromMap runs the same validation as NewPerson.
func PersonFromMap(m map[string]interface{}) (Person, error) {
	var pf personFields
	if err := decodeMap(m, &pf, personKeys...); err != nil {
		return Person{}, err
	}
	return NewPerson(pf.Name, pf.Age, pf.Email)
}

var personKeys = []string{"name", "age", "email"}

// decodeMap decodes m into out; each of required must be present in m.
// Ints accept whole numbers and decimal strings (CSV/XLSX cells) only.
func decodeMap(m map[string]interface{}, out interface{}, required ...string) error {
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: strictIntHook,
		Metadata:   &md,
		Result:     out,
	})
	if err != nil {
		return errors.Wrap(err, "creating decoder")
	}
	if err = dec.Decode(m); err != nil {
		return core.NewValidationError(errors.Wrap(err, "decoding record"))
	}

	for _, key := range required {
		for _, unset := range md.Unset {
			if unset == key {
				msg := key + " is required"
				return core.NewValidationError(errors.New(msg), core.FieldError{Field: key, Error: msg})
			}
		}
	}
	return nil
}

func strictIntHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.Int {
		return data, nil
	}
	switch v := data.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, errors.Errorf("%v is not a whole number", v)
		}
		return int(v), nil
	case float32:
		return strictIntHook(nil, to, float64(v))
	case json.Number:
		i, err := strconv.Atoi(v.String())
		if err != nil {
			return nil, errors.Errorf("%s is not a whole number", v)
		}
		return i, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, errors.Errorf("%q is not a whole number", v)
		}
		return i, nil
	case bool:
		return nil, errors.Errorf("%v is not a whole number", v)
	}
	return data, nil
}
