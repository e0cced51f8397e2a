package forms

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mansap-dev/mansap/internal/auth"
)

// Message renders a failed constraint for display. It depends only on the
// field name, the constraint tag and its parameter.
func Message(fe auth.FieldError) string {
	label := Label(fe.Field)
	switch fe.Tag {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "email":
		return "Please enter a valid email address."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param)
	case "max":
		return fmt.Sprintf("%s cannot be longer than %s characters.", label, fe.Param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param, " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}

// Messages maps each failed field to its message.
func Messages(fields []auth.FieldError) map[string]string {
	out := make(map[string]string, len(fields))
	for _, fe := range fields {
		if _, seen := out[fe.Field]; !seen {
			out[fe.Field] = Message(fe)
		}
	}
	return out
}

// Label turns a wire field name such as "coverLetter" into "Cover letter".
func Label(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
