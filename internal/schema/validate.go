// Package schema declares the request shapes accepted by the API and the
// rules they are validated against.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"voyago/internal/domain/bookings"
	"voyago/internal/domain/notifications"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

var (
	validate *validator.Validate

	slugRe  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9 ()\-]{7,20}$`)
	nonSlug = regexp.MustCompile(`[^a-z0-9]+`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report JSON names, not Go field names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("bookingstatus", func(fl validator.FieldLevel) bool {
		return bookings.ValidStatus(fl.Field().String())
	})
	_ = validate.RegisterValidation("notificationtype", func(fl validator.FieldLevel) bool {
		return notifications.ValidType(fl.Field().String())
	})

	validate.RegisterStructValidation(bookingDates, BookingInput{})
	validate.RegisterStructValidation(bookingUpdateDates, BookingUpdate{})
}

// ValidationError carries one message per offending JSON field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks v against its validate tags.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return err
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

// RequireAny fails when every pointer, slice or map field of the update
// struct v is nil.
func RequireAny(v any) error {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		switch f.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
			if !f.IsNil() {
				return nil
			}
		}
	}
	return &ValidationError{Fields: map[string]string{"body": "at least one field is required"}}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "url", "http_url":
		return "must be a valid URL"
	case "slug":
		return "must contain lowercase letters, digits and single hyphens"
	case "phone":
		return "must be a valid phone number"
	case "bookingstatus":
		return "must be one of: " + strings.Join(bookings.Statuses, ", ")
	case "notificationtype":
		return "must be one of: " + strings.Join(notifications.Types, ", ")
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "enddate":
		return "must not be before start_date"
	case "excluded_with":
		return "cannot be combined with " + fe.Param()
	case "min":
		if isText(fe) {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if isList(fe) {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if isText(fe) {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if isList(fe) {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	default:
		return "is invalid"
	}
}

func isText(fe validator.FieldError) bool { return fe.Kind() == reflect.String }

func isList(fe validator.FieldError) bool {
	return fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array
}

// Slugify derives a URL slug from a display name.
func Slugify(s string) string {
	s = nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(s, "-")
}

// ParseDate parses a YYYY-MM-DD string as a UTC date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func bookingDates(sl validator.StructLevel) {
	in := sl.Current().Interface().(BookingInput)
	checkDateOrder(sl, &in.StartDate, &in.EndDate, in.EndDate)
}

func bookingUpdateDates(sl validator.StructLevel) {
	in := sl.Current().Interface().(BookingUpdate)
	if in.StartDate == nil || in.EndDate == nil {
		return
	}
	checkDateOrder(sl, in.StartDate, in.EndDate, *in.EndDate)
}

func checkDateOrder(sl validator.StructLevel, start, end *string, field any) {
	s, err1 := ParseDate(*start)
	e, err2 := ParseDate(*end)
	if err1 != nil || err2 != nil {
		return // reported by the datetime rule
	}
	if e.Before(s) {
		sl.ReportError(field, "end_date", "EndDate", "enddate", "")
	}
}
