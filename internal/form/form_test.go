package form

import (
	"strings"
	"testing"

	"taskboard/internal/service"
)

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name     string
		creds    service.Credentials
		field    string
		expected string
	}{
		{"valid", service.Credentials{Email: "a@b.com", Password: "secret1"}, "", ""},
		{"short password", service.Credentials{Email: "a@b.com", Password: "short"}, FieldPassword, "password too short"},
		{"missing password", service.Credentials{Email: "a@b.com"}, FieldPassword, "password is required"},
		{"missing email", service.Credentials{Password: "secret1"}, FieldEmail, "email is required"},
		{"bad email", service.Credentials{Email: "a@b", Password: "secret1"}, FieldEmail, "invalid email"},
		{"email with space", service.Credentials{Email: "a b@c.com", Password: "secret1"}, FieldEmail, "invalid email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateLogin(tt.creds)
			if tt.field == "" {
				if !errs.Empty() {
					t.Errorf("expected no errors, got %v", errs)
				}
				return
			}
			if got := errs.Get(tt.field); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	valid := service.Registration{Name: "Élise Martin", Email: "e@m.fr", Password: "Secret123", ConfirmPassword: "Secret123"}
	if errs := ValidateRegistration(valid, true); !errs.Empty() {
		t.Fatalf("expected no errors, got %v", errs)
	}

	r := valid
	r.Name = "Al"
	if got := ValidateRegistration(r, true).Get(FieldName); got != "name too short" {
		t.Errorf("expected name too short, got %q", got)
	}

	r = valid
	r.Name = "R2D2"
	if got := ValidateRegistration(r, true).Get(FieldName); got == "" {
		t.Error("expected error for digits in name")
	}

	r = valid
	r.Password, r.ConfirmPassword = "secret123", "secret123"
	if got := ValidateRegistration(r, true).Get(FieldPassword); !strings.Contains(got, "uppercase") {
		t.Errorf("expected complexity error, got %q", got)
	}

	r = valid
	r.ConfirmPassword = "Secret124"
	if got := ValidateRegistration(r, true).Get(FieldConfirmPassword); got != "passwords do not match" {
		t.Errorf("expected mismatch error, got %q", got)
	}

	r = valid
	r.ConfirmPassword = ""
	if errs := ValidateRegistration(r, false); !errs.Empty() {
		t.Errorf("confirmation should be optional, got %v", errs)
	}
}

func TestValidateTask(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"ab", "title too short"},
		{"   ", "title is required"},
		{"  abc  ", ""},
		{strings.Repeat("x", 101), "title too long"},
		{strings.Repeat("é", 100), ""},
	}
	for _, tt := range tests {
		errs := ValidateTask(tt.title, "", service.StatusTodo)
		if got := errs.Get(FieldTitle); got != tt.expected {
			t.Errorf("title %q: expected %q, got %q", tt.title, tt.expected, got)
		}
	}

	if got := ValidateTask("abc", strings.Repeat("d", 1001), "").Get(FieldDescription); got != "description too long" {
		t.Errorf("expected description error, got %q", got)
	}
	if got := ValidateTask("abc", "", service.Status("LATER")).Get(FieldStatus); got != "invalid status" {
		t.Errorf("expected status error, got %q", got)
	}
}

func TestValidatePatch_ShortTitle(t *testing.T) {
	errs := ValidatePatch(service.TaskPatch{Title: "ab", Status: service.StatusDone})
	if got := errs.Get(FieldTitle); got != "title too short" {
		t.Errorf("expected %q, got %q", "title too short", got)
	}
	if len(errs.List()) != 1 {
		t.Errorf("expected one error, got %v", errs.List())
	}
}

func TestValidateImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	ct, errs := ValidateImage(png, 1024)
	if !errs.Empty() || ct != "image/png" {
		t.Errorf("expected valid png, got %q %v", ct, errs)
	}

	if _, errs := ValidateImage(png, MaxImageSize+1); errs.Get(FieldImage) == "" {
		t.Error("expected size error")
	}

	if _, errs := ValidateImage([]byte("plain text"), 10); errs.Get(FieldImage) != "file is not an image" {
		t.Errorf("expected type error, got %v", errs)
	}
}

func TestFieldErrors_FirstWins(t *testing.T) {
	var errs FieldErrors
	errs.Add("a", "first")
	errs.Add("a", "second")
	errs.Add("b", "other")

	if errs.Get("a") != "first" {
		t.Errorf("expected first message to win, got %q", errs.Get("a"))
	}
	if errs.Message() != "first, other" {
		t.Errorf("unexpected message %q", errs.Message())
	}
	var empty FieldErrors
	if empty.List() != nil {
		t.Error("expected nil list for no errors")
	}
}
