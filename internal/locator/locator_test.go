package locator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// decodeLiteral evaluates the subset of XPath produced by XPathLiteral.
func decodeLiteral(t *rapid.T, lit string) string {
	if strings.HasPrefix(lit, "concat(") {
		body := strings.TrimSuffix(strings.TrimPrefix(lit, "concat("), ")")
		var out strings.Builder
		for len(body) > 0 {
			q := body[0]
			end := strings.IndexByte(body[1:], q)
			if end < 0 {
				t.Fatalf("unterminated literal in %q", lit)
			}
			out.WriteString(body[1 : 1+end])
			body = strings.TrimPrefix(body[end+2:], ", ")
		}
		return out.String()
	}
	if len(lit) < 2 || lit[0] != lit[len(lit)-1] {
		t.Fatalf("malformed literal %q", lit)
	}
	return lit[1 : len(lit)-1]
}

func TestXPathLiteral_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[a-zA-Z0-9 !'"]{0,30}`).Draw(t, "s")
		if got := decodeLiteral(t, XPathLiteral(s)); got != s {
			t.Fatalf("XPathLiteral(%q) decoded to %q", s, got)
		}
	})
}

func TestHasText(t *testing.T) {
	l := HasText("h2", "Account Created!")
	assert.Equal(t, XPath, l.Strategy())
	assert.Equal(t, `//h2[contains(normalize-space(.), "Account Created!")]`, l.Selector())

	assert.Equal(t, `//*[contains(normalize-space(.), "x")]`, HasText("", "x").Selector())
}

func TestDescendant(t *testing.T) {
	user := HasText("a", "Logged in as").Describe("logged in user").Descendant("b")
	assert.Equal(t, `//a[contains(normalize-space(.), "Logged in as")]//b`, user.Selector())
	assert.Equal(t, "logged in user", user.Description())

	assert.True(t, ByCSS("a").Descendant("b").IsZero())
}

func TestDescribe_DoesNotMutate(t *testing.T) {
	base := ByCSS("#password")
	described := base.Describe("password input")

	assert.Equal(t, "", base.Description())
	assert.Equal(t, "password input [css=#password]", described.String())
	assert.Equal(t, "[css=#password]", base.String())
	assert.Equal(t, "<empty locator>", Locator{}.String())
}
