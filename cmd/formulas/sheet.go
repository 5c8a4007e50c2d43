package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/formulas"
)

// sheet is a set of named formulas with the bindings they share.
//
//	bindings:
//	  base: "5"
//	formulas:
//	  - name: threshold
//	    formula: "[base]*2"
//	  - name: margin
//	    formula: "[threshold]+1"
type sheet struct {
	Bindings formulas.Bindings `yaml:"bindings"`
	Formulas []entry           `yaml:"formulas" validate:"required,min=1,dive"`
}

type entry struct {
	Name    string `yaml:"name" validate:"required,excludesall=[]"`
	Formula string `yaml:"formula" validate:"required"`
}

// result is the value of one formula of a sheet.
type result struct {
	Name  string
	Value float64
}

var validate = validator.New()

// parseSheet decodes and validates a sheet.
func parseSheet(data []byte) (*sheet, error) {
	var s sheet
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := validate.Struct(&s); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(s.Formulas))
	for _, e := range s.Formulas {
		if seen[e.Name] {
			return nil, fmt.Errorf("formula %q defined twice", e.Name)
		}
		seen[e.Name] = true
	}
	if s.Bindings == nil {
		s.Bindings = make(formulas.Bindings)
	}
	return &s, nil
}

// loadSheet reads a sheet from a file.
func loadSheet(name string) (*sheet, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	s, err := parseSheet(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

// Eval evaluates the formulas of the sheet in order, binding each result to
// the formula's name for the formulas after it. The identifier of each
// evaluation is the formula's name.
func (s *sheet) Eval(eng *formulas.Engine) []result {
	b := s.Bindings.Clone()
	r := make([]result, 0, len(s.Formulas))
	for _, e := range s.Formulas {
		v := eng.Evaluate(e.Name, e.Formula, b)
		b[e.Name] = formulas.FormatNumber(v)
		r = append(r, result{Name: e.Name, Value: v})
	}
	return r
}
