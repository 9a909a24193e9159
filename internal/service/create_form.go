package service

import (
	"context"

	"userconsole"
	"userconsole/internal/session"
)

const createFailedMessage = "Failed to create user."

var createMessages = map[string]string{
	"name.notblank":      "Name is required.",
	"email.notblank":     "Email is required.",
	"email.simple_email": "Invalid email format.",
	"password.required":  "Password is required.",
	"type.oneof":         "Type must be regular or admin.",
}

// CreateForm collects a new account. Validation errors are per field and a
// field's error is cleared as soon as that field is edited.
type CreateForm struct {
	Name     string               `form:"name" validate:"notblank"`
	Email    string               `form:"email" validate:"notblank,simple_email"`
	Password string               `form:"password" validate:"required"`
	Type     userconsole.UserType `form:"type" validate:"oneof=regular admin"`

	Errors   FieldErrors
	APIError string

	api  UsersAPI
	sess *session.Session
	data *UsersData
}

func newCreateForm(api UsersAPI, sess *session.Session, data *UsersData) *CreateForm {
	return &CreateForm{
		Type: userconsole.UserTypeRegular,
		api:  api,
		sess: sess,
		data: data,
	}
}

// Set edits one field by its form name.
func (f *CreateForm) Set(field, value string) {
	switch field {
	case "name":
		f.Name = value
	case "email":
		f.Email = value
	case "password":
		f.Password = value
	case "type":
		f.Type = userconsole.UserType(value)
	default:
		return
	}
	delete(f.Errors, field)
	f.APIError = ""
}

// Validate refreshes Errors and reports whether the form can be sent.
func (f *CreateForm) Validate() bool {
	f.Errors, _ = validateForm(f, createMessages)
	return len(f.Errors) == 0
}

// Submit creates the user. Nothing is sent when validation fails. On API
// failure APIError holds the server's message, or a neutral default when the
// server gave none.
func (f *CreateForm) Submit(ctx context.Context) (*userconsole.User, error) {
	f.APIError = ""
	if !f.Validate() {
		return nil, ErrInvalidForm
	}
	if !f.data.creating.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer f.data.creating.Store(false)

	token, err := f.sess.Token(ctx)
	if err != nil || token == "" {
		return nil, ErrSignInRequired
	}

	u, err := f.api.Create(ctx, userconsole.UserInput{
		Name:     f.Name,
		Email:    f.Email,
		Password: f.Password,
		Type:     f.Type,
	}, token)
	if err != nil {
		if userconsole.IsUnauthorized(err) {
			f.data.expire(ctx)
			return nil, ErrSignInRequired
		}
		f.APIError = err.Error()
		if f.APIError == "" {
			f.APIError = createFailedMessage
		}
		return nil, DisplayError(f.APIError)
	}
	return &u, nil
}
