package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/client/services"
	"github.com/dmitrijs2005/qryptovault/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for email and password and submits the login form.
// On success the form navigates to the inbox (see ToInbox).
func (a *App) Login(ctx context.Context) error {
	a.switchMode(services.ModeLogin)

	if err := a.promptField(models.FieldEmail, "Enter email"); err != nil {
		return err
	}
	if err := a.promptSecret(models.FieldPassword, "Enter password: "); err != nil {
		return err
	}
	return a.submit(ctx)
}

// Signup prompts for the account fields and submits the signup form. On
// success the form flips back to login after the configured delay, keeping
// the email.
func (a *App) Signup(ctx context.Context) error {
	a.switchMode(services.ModeSignup)

	if err := a.promptField(models.FieldUsername, "Enter username"); err != nil {
		return err
	}
	if err := a.promptField(models.FieldEmail, "Enter email"); err != nil {
		return err
	}
	if err := a.promptSecret(models.FieldPassword, "Enter password: "); err != nil {
		return err
	}
	if a.config.RequireConfirmPassword {
		if err := a.promptSecret(models.FieldConfirmPassword, "Confirm password: "); err != nil {
			return err
		}
	}
	return a.submit(ctx)
}

// Logout drops the session and stops the live inbox.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		fmt.Fprintln(a.out, services.UserMessage(err))
		return err
	}
	a.requestInbox(nil)
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) switchMode(m services.Mode) {
	if a.form.Mode() != m {
		a.form.ToggleMode()
	}
}

// promptField reads a plain field. An empty answer keeps the current value,
// so the email survives the switch from signup to login.
func (a *App) promptField(name, prompt string) error {
	current := a.form.Credentials().Get(name)
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]", prompt, current)
	}

	value, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if value == "" && current != "" {
		return nil
	}
	a.form.UpdateField(name, value)
	return nil
}

func (a *App) promptSecret(name, prompt string) error {
	secret, err := getPassword(a.out, prompt)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	a.form.UpdateField(name, string(secret))
	return nil
}

func (a *App) submit(ctx context.Context) error {
	_, err := a.form.Submit(ctx)
	defer a.forgetSecrets()

	var ve *services.ValidationError
	if errors.As(err, &ve) {
		for _, msg := range ve.Messages() {
			fmt.Fprintln(a.out, msg)
		}
		return err
	}

	if msg := a.form.Message(); msg.Text != "" {
		fmt.Fprintln(a.out, msg.Text)
	} else if err != nil {
		fmt.Fprintln(a.out, services.UserMessage(err))
	}
	return err
}

// forgetSecrets drops passwords from the form once a submission is over.
func (a *App) forgetSecrets() {
	a.form.UpdateField(models.FieldPassword, "")
	a.form.UpdateField(models.FieldConfirmPassword, "")
}
