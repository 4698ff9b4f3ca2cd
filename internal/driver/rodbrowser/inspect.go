package rodbrowser

import (
	"context"

	"github.com/go-rod/rod"

	"github.com/v0xg/flowcheck/internal/driver"
)

// Inspect summarises the visible interactive elements on the current page.
// Failure reports include it so a broken selector can be compared against
// what the page actually offers.
func (s *Session) Inspect(ctx context.Context) (*driver.PageSummary, error) {
	page := s.page.Context(ctx)

	url, err := s.URL(ctx)
	if err != nil {
		return nil, err
	}
	title, err := page.Eval(`() => document.title`)
	if err != nil {
		return nil, err
	}
	elements, err := extractElements(page)
	if err != nil {
		return nil, err
	}
	return &driver.PageSummary{
		URL:      url,
		Title:    title.Value.String(),
		Elements: elements,
	}, nil
}

func extractElements(page *rod.Page) ([]driver.ElementSummary, error) {
	result, err := page.Eval(`() => {
		const elements = [];
		const seen = new Set();

		// Class names usable in a CSS selector as-is.
		function isValidCSSClass(cls) {
			if (!cls || cls.length === 0) return false;
			if (/^-?[0-9]/.test(cls)) return false;
			if (/[.:#\[\]()>~+*\/\\]/.test(cls)) return false;
			return true;
		}

		function getSelector(el) {
			const qa = el.getAttribute('data-qa');
			if (qa) return el.tagName.toLowerCase() + '[data-qa="' + qa + '"]';
			if (el.id && isValidCSSClass(el.id)) return '#' + el.id;
			if (el.name) return el.tagName.toLowerCase() + '[name="' + el.name + '"]';

			if (el.className && typeof el.className === 'string') {
				const classes = el.className.trim().split(/\s+/).filter(isValidCSSClass).slice(0, 2);
				if (classes.length > 0) {
					const selector = el.tagName.toLowerCase() + '.' + classes.join('.');
					try {
						if (document.querySelectorAll(selector).length === 1) return selector;
					} catch (e) {}
				}
			}

			const parent = el.parentElement;
			if (parent) {
				const index = Array.from(parent.children).indexOf(el) + 1;
				const parentSelector = getSelector(parent);
				if (parentSelector) {
					return parentSelector + ' > ' + el.tagName.toLowerCase() + ':nth-child(' + index + ')';
				}
			}
			return el.tagName.toLowerCase();
		}

		function add(el, type, text) {
			if (!el.offsetParent) return;
			const selector = getSelector(el);
			if (seen.has(selector)) return;
			seen.add(selector);
			elements.push({selector: selector, type: type, text: (text || '').trim().slice(0, 50)});
		}

		document.querySelectorAll('button, [role="button"], input[type="submit"], input[type="button"]')
			.forEach(el => add(el, 'button', el.textContent || el.value));
		document.querySelectorAll('input[type="checkbox"], input[type="radio"]')
			.forEach(el => add(el, el.type, el.value));
		document.querySelectorAll('input:not([type="hidden"]):not([type="submit"]):not([type="button"]), textarea')
			.forEach(el => add(el, el.type || 'text', el.placeholder));
		document.querySelectorAll('select').forEach(el => add(el, 'select', ''));
		document.querySelectorAll('a[href]').forEach(el => {
			const href = el.getAttribute('href');
			if (href.startsWith('#') || href.startsWith('javascript:')) return;
			add(el, 'link', el.textContent);
		});
		return elements;
	}`)
	if err != nil {
		return nil, err
	}

	var elements []driver.ElementSummary
	for _, v := range result.Value.Arr() {
		elements = append(elements, driver.ElementSummary{
			Selector: v.Get("selector").String(),
			Type:     v.Get("type").String(),
			Text:     v.Get("text").String(),
		})
	}
	return elements, nil
}
