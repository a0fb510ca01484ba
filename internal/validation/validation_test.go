package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/domain"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		domain  string
		wantErr error
	}{
		{
			name:   "valid institution address",
			email:  "alice@mnnit.ac.in",
			domain: "mnnit.ac.in",
		},
		{
			name:   "mixed case address and domain",
			email:  "Bob@MNNIT.AC.IN",
			domain: "mnnit.ac.in",
		},
		{
			name:    "empty email",
			email:   "",
			domain:  "mnnit.ac.in",
			wantErr: ErrEmptyValue,
		},
		{
			name:    "not an address",
			email:   "not-an-email",
			domain:  "mnnit.ac.in",
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "wrong domain",
			email:   "alice@gmail.com",
			domain:  "mnnit.ac.in",
			wantErr: ErrWrongDomain,
		},
		{
			name:    "lookalike domain",
			email:   "alice@notmnnit.ac.in",
			domain:  "mnnit.ac.in",
			wantErr: ErrWrongDomain,
		},
		{
			name:   "empty domain disables the check",
			email:  "alice@gmail.com",
			domain: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email, tt.domain)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEmail(%q, %q) = %v, want nil", tt.email, tt.domain, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEmail(%q, %q) = %v, want %v", tt.email, tt.domain, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmailErrorType(t *testing.T) {
	err := ValidateEmail("alice@gmail.com", "mnnit.ac.in")

	var emailErr *EmailError
	if !errors.As(err, &emailErr) {
		t.Fatalf("expected *EmailError, got %T", err)
	}
	if emailErr.Email != "alice@gmail.com" {
		t.Errorf("expected Email='alice@gmail.com', got %q", emailErr.Email)
	}
	if !strings.Contains(emailErr.Error(), "mnnit.ac.in") {
		t.Errorf("expected error message to name the allowed domain, got %q", emailErr.Error())
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "hunter22",
		},
		{
			name:     "exactly minimum length",
			password: strings.Repeat("a", MinPasswordLength),
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  ErrEmptyValue,
		},
		{
			name:     "too short",
			password: "abc",
			wantErr:  ErrTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePassword() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePassword() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:  "valid name",
			input: "Alice Kumar",
		},
		{
			name:    "empty name",
			input:   "",
			wantErr: ErrEmptyValue,
		},
		{
			name:    "whitespace only",
			input:   "   ",
			wantErr: ErrEmptyValue,
		},
		{
			name:    "too long",
			input:   strings.Repeat("a", MaxNameLength+1),
			wantErr: ErrTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateName(%q) = %v, want nil", tt.input, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateName(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func validCreateBook() domain.CreateBook {
	return domain.CreateBook{
		Title:        "Introduction to Algorithms",
		Subject:      "Computer Science",
		Condition:    "Used - Good",
		ExchangeType: "Sell",
		Image:        "data:image/png;base64,iVBORw0KGgo=",
		ContactInfo:  "Hostel B, room 214",
	}
}

func TestValidateCreateBook(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.CreateBook)
		wantErr error
	}{
		{
			name:   "valid listing",
			mutate: func(b *domain.CreateBook) {},
		},
		{
			name:    "empty title",
			mutate:  func(b *domain.CreateBook) { b.Title = "  " },
			wantErr: ErrEmptyValue,
		},
		{
			name:    "title too long",
			mutate:  func(b *domain.CreateBook) { b.Title = strings.Repeat("x", MaxTitleLength+1) },
			wantErr: ErrTooLong,
		},
		{
			name:    "unknown subject",
			mutate:  func(b *domain.CreateBook) { b.Subject = "Astrology" },
			wantErr: ErrNotInSet,
		},
		{
			name:    "unknown condition",
			mutate:  func(b *domain.CreateBook) { b.Condition = "Mint" },
			wantErr: ErrNotInSet,
		},
		{
			name:    "unknown exchange type",
			mutate:  func(b *domain.CreateBook) { b.ExchangeType = "Rent" },
			wantErr: ErrNotInSet,
		},
		{
			name:    "subject is case sensitive",
			mutate:  func(b *domain.CreateBook) { b.Subject = "computer science" },
			wantErr: ErrNotInSet,
		},
		{
			name:    "missing image",
			mutate:  func(b *domain.CreateBook) { b.Image = "" },
			wantErr: ErrEmptyValue,
		},
		{
			name:    "missing contact info",
			mutate:  func(b *domain.CreateBook) { b.ContactInfo = " " },
			wantErr: ErrEmptyValue,
		},
		{
			name:    "contact info too long",
			mutate:  func(b *domain.CreateBook) { b.ContactInfo = strings.Repeat("x", MaxContactLength+1) },
			wantErr: ErrTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreateBook()
			tt.mutate(&in)
			err := ValidateCreateBook(in)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCreateBook() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCreateBook() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCreateBookAcceptsEveryEnumValue(t *testing.T) {
	for _, subject := range domain.Subjects {
		for _, condition := range domain.Conditions {
			for _, exchange := range domain.ExchangeTypes {
				in := validCreateBook()
				in.Subject = subject
				in.Condition = condition
				in.ExchangeType = exchange
				if err := ValidateCreateBook(in); err != nil {
					t.Errorf("ValidateCreateBook(%q/%q/%q) = %v, want nil",
						subject, condition, exchange, err)
				}
			}
		}
	}
}

func TestValidateUpdateBook(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name    string
		in      domain.UpdateBook
		wantErr error
	}{
		{
			name: "no fields set",
			in:   domain.UpdateBook{},
		},
		{
			name: "valid partial update",
			in:   domain.UpdateBook{Title: str("Signals and Systems"), Condition: str("New")},
		},
		{
			name:    "empty title",
			in:      domain.UpdateBook{Title: str("")},
			wantErr: ErrEmptyValue,
		},
		{
			name:    "unknown subject",
			in:      domain.UpdateBook{Subject: str("Alchemy")},
			wantErr: ErrNotInSet,
		},
		{
			name:    "unknown exchange type",
			in:      domain.UpdateBook{ExchangeType: str("Trade")},
			wantErr: ErrNotInSet,
		},
		{
			name:    "blank image",
			in:      domain.UpdateBook{Image: str("  ")},
			wantErr: ErrEmptyValue,
		},
		{
			name:    "blank contact info",
			in:      domain.UpdateBook{ContactInfo: str("")},
			wantErr: ErrEmptyValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpdateBook(tt.in)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateUpdateBook() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUpdateBook() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMessageText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{
			name: "valid message",
			text: "Is this still available?",
		},
		{
			name: "exactly maximum length",
			text: strings.Repeat("a", MaxMessageLength),
		},
		{
			name:    "empty",
			text:    "",
			wantErr: ErrEmptyValue,
		},
		{
			name:    "whitespace only",
			text:    " \t\n ",
			wantErr: ErrEmptyValue,
		},
		{
			name:    "too long",
			text:    strings.Repeat("a", MaxMessageLength+1),
			wantErr: ErrTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageText(tt.text)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateMessageText() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateMessageText() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFieldErrorMessage(t *testing.T) {
	err := ValidateCreateBook(domain.CreateBook{
		Title:        "Title",
		Subject:      "Nope",
		Condition:    "New",
		ExchangeType: "Sell",
		Image:        "x",
		ContactInfo:  "y",
	})

	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	if fieldErr.Field != "subject" {
		t.Errorf("expected Field='subject', got %q", fieldErr.Field)
	}
	if !strings.Contains(fieldErr.Error(), "Computer Science") {
		t.Errorf("expected error to list allowed values, got %q", fieldErr.Error())
	}
}
