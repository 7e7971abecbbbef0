// Package form validates user input before it is sent to the backend.
// Field names match the backend's wire names so client and server errors
// can be shown the same way.
package form

import (
	"net/http"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"taskboard/internal/service"
)

// Field names.
const (
	FieldName            = "nom"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldTitle           = "titre"
	FieldDescription     = "description"
	FieldStatus          = "status"
	FieldImage           = "image"
)

// Limits.
const (
	MinLoginPassword    = 6
	MinRegisterPassword = 8
	MinName             = 3
	MaxName             = 50
	MinTitle            = 3
	MaxTitle            = 100
	MaxDescription      = 1000
	MaxImageSize        = 5 << 20
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldErrors is an ordered set of field errors; the first message for a
// field wins.
type FieldErrors []service.FieldError

// Add records msg for field unless the field already has an error.
func (f *FieldErrors) Add(field, msg string) {
	if f.Get(field) != "" {
		return
	}
	*f = append(*f, service.FieldError{Field: field, Message: msg})
}

// Get returns the message for field, or "".
func (f FieldErrors) Get(field string) string {
	for _, e := range f {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Empty reports whether there are no errors.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// List returns the errors as service field errors, or nil when empty.
func (f FieldErrors) List() []service.FieldError {
	if len(f) == 0 {
		return nil
	}
	return append([]service.FieldError(nil), f...)
}

// Message joins all messages for display.
func (f FieldErrors) Message() string {
	msgs := make([]string, 0, len(f))
	for _, e := range f {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, ", ")
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateLogin checks login credentials.
func ValidateLogin(c service.Credentials) FieldErrors {
	var errs FieldErrors
	checkEmail(&errs, c.Email)
	switch {
	case c.Password == "":
		errs.Add(FieldPassword, "password is required")
	case utf8.RuneCountInString(c.Password) < MinLoginPassword:
		errs.Add(FieldPassword, "password too short")
	}
	return errs
}

// ValidateRegistration checks a new account. ConfirmPassword is only
// checked when set, so admin-created users may omit it.
func ValidateRegistration(r service.Registration, requireConfirm bool) FieldErrors {
	var errs FieldErrors

	name := strings.TrimSpace(r.Name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		errs.Add(FieldName, "name is required")
	case n < MinName:
		errs.Add(FieldName, "name too short")
	case n > MaxName:
		errs.Add(FieldName, "name too long")
	case !lettersAndSpaces(name):
		errs.Add(FieldName, "name may only contain letters and spaces")
	}

	checkEmail(&errs, r.Email)

	switch {
	case r.Password == "":
		errs.Add(FieldPassword, "password is required")
	case utf8.RuneCountInString(r.Password) < MinRegisterPassword:
		errs.Add(FieldPassword, "password too short")
	case !mixedPassword(r.Password):
		errs.Add(FieldPassword, "password needs a lowercase letter, an uppercase letter and a digit")
	}

	if requireConfirm || r.ConfirmPassword != "" {
		if r.ConfirmPassword != r.Password {
			errs.Add(FieldConfirmPassword, "passwords do not match")
		}
	}
	return errs
}

// ValidateTask checks the fields shared by task creation and edits.
func ValidateTask(title, description string, status service.Status) FieldErrors {
	var errs FieldErrors
	switch n := utf8.RuneCountInString(strings.TrimSpace(title)); {
	case n == 0:
		errs.Add(FieldTitle, "title is required")
	case n < MinTitle:
		errs.Add(FieldTitle, "title too short")
	case n > MaxTitle:
		errs.Add(FieldTitle, "title too long")
	}
	if utf8.RuneCountInString(description) > MaxDescription {
		errs.Add(FieldDescription, "description too long")
	}
	if status != "" && !status.Valid() {
		errs.Add(FieldStatus, "invalid status")
	}
	return errs
}

// ValidateNewTask checks a task before creation.
func ValidateNewTask(t service.NewTask) FieldErrors {
	return ValidateTask(t.Title, t.Description, t.Status)
}

// ValidatePatch checks a task edit.
func ValidatePatch(p service.TaskPatch) FieldErrors {
	return ValidateTask(p.Title, p.Description, p.Status)
}

// ValidateImage sniffs the content type from the first bytes of a file and
// checks its size. It returns the detected content type.
func ValidateImage(head []byte, size int64) (string, FieldErrors) {
	var errs FieldErrors
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		errs.Add(FieldImage, "file is not an image")
	} else if size > MaxImageSize {
		errs.Add(FieldImage, "image too large (max 5 MB)")
	}
	return contentType, errs
}

func checkEmail(errs *FieldErrors, email string) {
	switch {
	case email == "":
		errs.Add(FieldEmail, "email is required")
	case !ValidEmail(email):
		errs.Add(FieldEmail, "invalid email")
	}
}

func lettersAndSpaces(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func mixedPassword(s string) bool {
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}
