package locator

import (
	"fmt"
	"strings"
)

// Strategy is how a selector is interpreted by a driver.
type Strategy string

const (
	CSS       Strategy = "css"
	XPath     Strategy = "xpath"
	A11yID    Strategy = "a11y-id"
	AndroidUI Strategy = "android-ui"
)

// Locator identifies zero or more elements in a remote UI tree.
// The zero value matches nothing and is never valid for a driver.
type Locator struct {
	strategy    Strategy
	selector    string
	description string
}

// ByCSS returns a CSS selector locator.
func ByCSS(selector string) Locator {
	return Locator{strategy: CSS, selector: selector}
}

// ByXPath returns an XPath locator.
func ByXPath(expr string) Locator {
	return Locator{strategy: XPath, selector: expr}
}

// ByA11yID returns a mobile accessibility id locator.
func ByA11yID(id string) Locator {
	return Locator{strategy: A11yID, selector: id}
}

// ByAndroidUI returns a UiAutomator expression locator.
func ByAndroidUI(expr string) Locator {
	return Locator{strategy: AndroidUI, selector: expr}
}

// HasText matches tag elements whose text content contains text.
func HasText(tag, text string) Locator {
	if tag == "" {
		tag = "*"
	}
	return Locator{
		strategy: XPath,
		selector: fmt.Sprintf("//%s[contains(normalize-space(.), %s)]", tag, XPathLiteral(text)),
	}
}

// Descendant returns a locator for tag descendants of an XPath locator.
// Other strategies cannot be composed and yield a zero Locator.
func (l Locator) Descendant(tag string) Locator {
	if l.strategy != XPath {
		return Locator{}
	}
	return Locator{strategy: XPath, selector: l.selector + "//" + tag, description: l.description}
}

// Describe returns a copy carrying a human readable description.
func (l Locator) Describe(description string) Locator {
	l.description = description
	return l
}

func (l Locator) Strategy() Strategy  { return l.strategy }
func (l Locator) Selector() string    { return l.selector }
func (l Locator) Description() string { return l.description }

// IsZero reports whether l was never constructed.
func (l Locator) IsZero() bool {
	return l.strategy == "" || l.selector == ""
}

func (l Locator) String() string {
	if l.IsZero() {
		return "<empty locator>"
	}
	if l.description == "" {
		return fmt.Sprintf("[%s=%s]", l.strategy, l.selector)
	}
	return fmt.Sprintf("%s [%s=%s]", l.description, l.strategy, l.selector)
}

// XPathLiteral quotes s as an XPath 1.0 string literal. XPath has no
// escape sequences, so strings holding both quote kinds become concat().
func XPathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
