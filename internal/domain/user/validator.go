package user

import (
	"fmt"
	"strings"
)

const (
	MinLoginLen    = 3
	MaxLoginLen    = 32
	MinPasswordLen = 8
)

type Validator interface {
	ValidateRegister(login, password string) error
	ValidateLogin(login string) error
}

type CredentialsValidator struct{}

func NewCredentialsValidator() *CredentialsValidator {
	return &CredentialsValidator{}
}

func (v *CredentialsValidator) ValidateRegister(login, password string) error {
	if err := v.ValidateLogin(login); err != nil {
		return err
	}
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}
	return nil
}

func (v *CredentialsValidator) ValidateLogin(login string) error {
	login = strings.TrimSpace(login)
	if len(login) < MinLoginLen || len(login) > MaxLoginLen {
		return fmt.Errorf("login must be %d-%d characters", MinLoginLen, MaxLoginLen)
	}
	if strings.ContainsAny(login, " \t\n") {
		return fmt.Errorf("login must not contain whitespace")
	}
	return nil
}
