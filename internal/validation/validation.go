// Package validation checks storefront forms before anything is sent to the
// backend.
package validation

import (
	"errors"
	"strings"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-playground/validator/v10"
)

type CheckoutForm struct {
	Name  string `validate:"required,min=2"`
	Email string `validate:"required,email"`
}

type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type RegisterForm struct {
	Name            string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"eqfield=Password"`
}

// ProductForm is the admin product editor. ImageURL is only checked when no
// file is being uploaded.
type ProductForm struct {
	Name        string  `validate:"required"`
	Description string  `validate:"max=2000"`
	Price       float64 `validate:"gte=0"`
	Stock       int     `validate:"gte=0"`
	Category    string  `validate:"max=100"`
	ImageURL    string  `validate:"required_without=Uploading,omitempty,url"`
	Uploading   bool
}

// messages maps "Struct.Field" or "Struct.Field.tag" to the text shown to the
// user. The more specific key wins.
var messages = map[string]string{
	"CheckoutForm.Name":            "Please enter a valid name (at least 2 characters)",
	"CheckoutForm.Email":           "Please enter a valid email address",
	"LoginForm.Email":              "Please enter a valid email address",
	"LoginForm.Password":           "Please enter your password",
	"RegisterForm.Name":            "Please enter your name",
	"RegisterForm.Email":           "Please enter a valid email address",
	"RegisterForm.Password":        "Password must be at least 6 characters",
	"RegisterForm.ConfirmPassword": "Passwords do not match",
	"ProductForm.Name":             "Product name is required",
	"ProductForm.Description":      "Description is too long",
	"ProductForm.Price":            "Price must be zero or more",
	"ProductForm.Stock":            "Stock must be zero or more",
	"ProductForm.Category":         "Category is too long",
	"ProductForm.ImageURL":         "Image must be a valid URL",

	"ProductForm.ImageURL.required_without": "Provide an image URL or upload a file",
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Check trims the form's text fields and validates it. The first violation
// is returned as a validation failure carrying a user-facing message.
func Check(form any) error {
	trim(form)
	err := instance().Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.Validation(err.Error())
	}
	return domain.Validation(message(verrs[0]))
}

// Required rejects an empty identifier before any call is made.
func Required(value, msg string) error {
	if strings.TrimSpace(value) == "" {
		return domain.Validation(msg)
	}
	return nil
}

func message(fe validator.FieldError) string {
	key := fe.StructNamespace()
	if m, ok := messages[key+"."+fe.Tag()]; ok {
		return m
	}
	if m, ok := messages[key]; ok {
		return m
	}
	return fe.Field() + " is invalid"
}

func trim(form any) {
	switch f := form.(type) {
	case *CheckoutForm:
		f.Name = strings.TrimSpace(f.Name)
		f.Email = strings.TrimSpace(f.Email)
	case *LoginForm:
		f.Email = strings.TrimSpace(f.Email)
	case *RegisterForm:
		f.Name = strings.TrimSpace(f.Name)
		f.Email = strings.TrimSpace(f.Email)
	case *ProductForm:
		f.Name = strings.TrimSpace(f.Name)
		f.Description = strings.TrimSpace(f.Description)
		f.Category = strings.TrimSpace(f.Category)
		f.ImageURL = strings.TrimSpace(f.ImageURL)
	}
}
