// Package schema checks every payload that crosses the process boundary
// against its structural contract before it reaches application state.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/felixrdev/grant-tagging-system/internal/domain"
	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/result"
)

// wireGrant is a tagged grant as received from the backend.
// Pointers distinguish an absent field from an empty one.
type wireGrant struct {
	Name         *string   `json:"grant_name" validate:"required"`
	Description  *string   `json:"grant_description" validate:"required"`
	Tags         *[]string `json:"tags" validate:"required"`
	WebsiteURLs  []string  `json:"website_urls"`
	DocumentURLs []string  `json:"document_urls"`
}

func (w *wireGrant) toDomain() grant.Grant {
	return grant.Grant{
		Name:         *w.Name,
		Description:  *w.Description,
		Tags:         nonNil(*w.Tags),
		WebsiteURLs:  nonNil(w.WebsiteURLs),
		DocumentURLs: nonNil(w.DocumentURLs),
	}
}

type wireSearchResult struct {
	ResolvedTags *[]string          `json:"resolved_tags" validate:"required"`
	Grants       *[]json.RawMessage `json:"grants" validate:"required"`
}

// Validator decodes and checks payloads. Safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// DecodeGrants decodes a JSON array of tagged grants. Every grant must carry tags.
func (s *Validator) DecodeGrants(data []byte) ([]grant.Grant, error) {
	return s.decodeGrants(data, "")
}

// DecodeTags decodes a JSON array of tag strings.
func (s *Validator) DecodeTags(data []byte) ([]string, error) {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, shapeError("", err)
	}
	if tags == nil {
		return nil, domain.NewValidation("", "expected array, got null")
	}
	return tags, nil
}

// DecodeSearchResult decodes an advanced search response.
func (s *Validator) DecodeSearchResult(data []byte) (result.Result, error) {
	var w wireSearchResult
	if err := json.Unmarshal(data, &w); err != nil {
		return result.Result{}, shapeError("", err)
	}
	if err := s.check("", &w); err != nil {
		return result.Result{}, err
	}

	grants := make([]grant.Grant, len(*w.Grants))
	for i, raw := range *w.Grants {
		g, err := s.decodeGrant(raw, fmt.Sprintf("grants[%d]", i))
		if err != nil {
			return result.Result{}, err
		}
		grants[i] = g
	}

	return result.Result{
		ResolvedTags: nonNil(*w.ResolvedTags),
		Grants:       grants,
	}, nil
}

// DecodeInputs parses user-supplied JSON into submittable inputs.
// Text that is not JSON at all yields a UserInputError; JSON of the wrong shape yields a ValidationError.
func (s *Validator) DecodeInputs(data []byte) ([]grant.Input, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, domain.NewUserInput("malformed JSON", err)
		}
		return nil, shapeError("", err)
	}
	if raw == nil {
		return nil, domain.NewValidation("", "expected array, got null")
	}

	inputs := make([]grant.Input, len(raw))
	for i, r := range raw {
		path := fmt.Sprintf("[%d]", i)
		if err := json.Unmarshal(r, &inputs[i]); err != nil {
			return nil, shapeError(path, err)
		}
	}
	return s.ValidateInputs(inputs)
}

// ValidateInputs checks inputs before submission and returns normalized copies.
func (s *Validator) ValidateInputs(inputs []grant.Input) ([]grant.Input, error) {
	out := make([]grant.Input, len(inputs))
	for i := range inputs {
		in := inputs[i]
		if err := s.check(fmt.Sprintf("[%d]", i), &in); err != nil {
			return nil, err
		}
		out[i] = in.Normalize()
	}
	return out, nil
}

func (s *Validator) decodeGrants(data []byte, prefix string) ([]grant.Grant, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, shapeError(prefix, err)
	}
	if raw == nil {
		return nil, domain.NewValidation(prefix, "expected array, got null")
	}

	grants := make([]grant.Grant, len(raw))
	for i, r := range raw {
		g, err := s.decodeGrant(r, fmt.Sprintf("%s[%d]", prefix, i))
		if err != nil {
			return nil, err
		}
		grants[i] = g
	}
	return grants, nil
}

func (s *Validator) decodeGrant(data []byte, path string) (grant.Grant, error) {
	var w wireGrant
	if err := json.Unmarshal(data, &w); err != nil {
		return grant.Grant{}, shapeError(path, err)
	}
	if err := s.check(path, &w); err != nil {
		return grant.Grant{}, err
	}
	return w.toDomain(), nil
}

// check runs struct constraints and converts the first failure into a ValidationError.
func (s *Validator) check(path string, v any) error {
	err := s.v.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate %s: %w", path, err)
	}

	fe := verrs[0]
	return domain.NewValidation(joinPath(path, fe.Field()), describeTag(fe))
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s element(s)", fe.Param())
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}

// shapeError converts a JSON decoding failure into a ValidationError.
func shapeError(path string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return domain.NewValidation(
			joinPath(path, typeErr.Field),
			fmt.Sprintf("expected %s, got %s", kindName(typeErr.Type), typeErr.Value),
		)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return domain.NewValidation(path, "malformed JSON: "+syntaxErr.Error())
	}
	return domain.NewValidation(path, err.Error())
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	default:
		return t.Kind().String()
	}
}

func joinPath(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	default:
		return prefix + "." + field
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
