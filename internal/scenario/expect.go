package scenario

import (
	"fmt"
	"strings"

	"github.com/v0xg/flowcheck/internal/api"
	"github.com/v0xg/flowcheck/internal/errs"
)

func fail(format string, args ...any) error {
	return errs.New(errs.AssertionFailed, fmt.Sprintf(format, args...))
}

func expectResponse(resp *api.Response, code int, message string) error {
	if resp.ResponseCode != code {
		return fail("expected responseCode %d, got %d (message %q)", code, resp.ResponseCode, resp.Message)
	}
	if !strings.Contains(resp.Message, message) {
		return fail("expected message containing %q, got %q", message, resp.Message)
	}
	return nil
}

func expectContains(what, got, want string) error {
	if !strings.Contains(got, want) {
		return fail("expected %s to contain %q, got %q", what, want, got)
	}
	return nil
}

func expectNonEmpty(what, got string) error {
	if strings.TrimSpace(got) == "" {
		return fail("expected %s to be non-empty", what)
	}
	return nil
}
