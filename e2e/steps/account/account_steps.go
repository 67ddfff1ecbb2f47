package account

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

const defaultPassword = "correct horse battery"

// TestContext is the slice of the scenario context the account steps use.
type TestContext interface {
	POST(path string, body any, token string) error
	GetResponseField(path string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	TokenFor(name string) string
	SetTokenFor(name, token string)
	DecodeToken(token string) (role, name string, err error)
}

// RegisterSteps registers registration and login steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &accountSteps{tc: tc}

	ctx.Step(`^a logged in (citizen|institution) "([^"]*)" with email "([^"]*)"$`, steps.loggedInAccount)
	ctx.Step(`^I register a (citizen|institution) "([^"]*)" with email "([^"]*)" and password "([^"]*)"$`, steps.register)
	ctx.Step(`^I log in with email "([^"]*)" and password "([^"]*)"$`, steps.login)
	ctx.Step(`^I save the token for "([^"]*)"$`, steps.saveToken)
	ctx.Step(`^the token for "([^"]*)" should carry role "([^"]*)" and name "([^"]*)"$`, steps.tokenShouldCarry)
	ctx.Step(`^the response should not contain a token$`, steps.noToken)
}

type accountSteps struct {
	tc TestContext
}

func (s *accountSteps) register(ctx context.Context, role, name, email, password string) error {
	return s.tc.POST("/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     role,
	}, "")
}

func (s *accountSteps) login(ctx context.Context, email, password string) error {
	return s.tc.POST("/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
}

func (s *accountSteps) saveToken(ctx context.Context, name string) error {
	token, err := s.tc.GetResponseField("token")
	if err != nil {
		return err
	}
	str, ok := token.(string)
	if !ok || str == "" {
		return fmt.Errorf("login response has no token: %s", s.tc.GetLastResponseBody())
	}
	s.tc.SetTokenFor(name, str)
	return nil
}

func (s *accountSteps) loggedInAccount(ctx context.Context, role, name, email string) error {
	if err := s.register(ctx, role, name, email, defaultPassword); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 201 {
		return fmt.Errorf("register %s: status %d: %s", email, status, s.tc.GetLastResponseBody())
	}
	if err := s.login(ctx, email, defaultPassword); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("login %s: status %d: %s", email, status, s.tc.GetLastResponseBody())
	}
	return s.saveToken(ctx, name)
}

func (s *accountSteps) tokenShouldCarry(ctx context.Context, who, role, name string) error {
	token := s.tc.TokenFor(who)
	if token == "" {
		return fmt.Errorf("no token saved for %s", who)
	}
	gotRole, gotName, err := s.tc.DecodeToken(token)
	if err != nil {
		return err
	}
	if gotRole != role || gotName != name {
		return fmt.Errorf("token carries role=%s name=%s, expected role=%s name=%s", gotRole, gotName, role, name)
	}
	return nil
}

func (s *accountSteps) noToken(ctx context.Context) error {
	if _, err := s.tc.GetResponseField("token"); err == nil {
		return fmt.Errorf("response unexpectedly carries a token: %s", s.tc.GetLastResponseBody())
	}
	return nil
}
