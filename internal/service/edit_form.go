package service

import (
	"context"

	"userconsole"
	"userconsole/internal/session"
)

const (
	editRequiredMessage = "Name and Email are required."
	editEmailMessage    = "Invalid email format."
	updateFailedMessage = "Failed to update user."
)

var editMessages = map[string]string{
	"name.notblank":      editRequiredMessage,
	"email.notblank":     editRequiredMessage,
	"email.simple_email": editEmailMessage,
	"type.oneof":         "Type must be regular or admin.",
}

// EditForm edits an existing account. NewPassword is sent only when set.
type EditForm struct {
	Name        string               `form:"name" validate:"notblank"`
	Email       string               `form:"email" validate:"notblank,simple_email"`
	Type        userconsole.UserType `form:"type" validate:"oneof=regular admin"`
	NewPassword string               `form:"password"`

	Error string

	api  UsersAPI
	sess *session.Session
	data *UsersData
}

func newEditForm(api UsersAPI, sess *session.Session, data *UsersData, u *userconsole.User) *EditForm {
	f := &EditForm{Type: userconsole.UserTypeRegular, api: api, sess: sess, data: data}
	if u != nil {
		f.Name, f.Email = u.Name, u.Email
		if u.Type != "" {
			f.Type = u.Type
		}
	}
	return f
}

// Set edits one field by its form name and clears the submit error.
func (f *EditForm) Set(field, value string) {
	switch field {
	case "name":
		f.Name = value
	case "email":
		f.Email = value
	case "type":
		f.Type = userconsole.UserType(value)
	case "password":
		f.NewPassword = value
	default:
		return
	}
	f.Error = ""
}

// Validate returns the first validation failure as a DisplayError.
func (f *EditForm) Validate() error {
	errs, order := validateForm(f, editMessages)
	if len(order) == 0 {
		return nil
	}
	return DisplayError(errs[order[0]])
}

// Payload is the update body. Password is left out when NewPassword is empty,
// which the API reads as "keep the current password".
func (f *EditForm) Payload() userconsole.UserInput {
	return userconsole.UserInput{
		Name:     f.Name,
		Email:    f.Email,
		Type:     f.Type,
		Password: f.NewPassword,
	}
}

// Submit validates and sends the update for user id.
func (f *EditForm) Submit(ctx context.Context, id int) (*userconsole.User, error) {
	f.Error = ""
	if err := f.Validate(); err != nil {
		f.Error = err.Error()
		return nil, err
	}
	if !f.data.submitting.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer f.data.submitting.Store(false)

	token, err := f.sess.Token(ctx)
	if err != nil || token == "" {
		return nil, ErrSignInRequired
	}

	u, err := f.api.Update(ctx, id, f.Payload(), token)
	if err != nil {
		if userconsole.IsUnauthorized(err) {
			f.data.expire(ctx)
			return nil, ErrSignInRequired
		}
		f.Error = err.Error()
		if f.Error == "" {
			f.Error = updateFailedMessage
		}
		return nil, DisplayError(f.Error)
	}
	return &u, nil
}
