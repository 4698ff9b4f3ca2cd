package pagestest

import (
	"strings"
	"time"

	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/driver/drivertest"
	"github.com/v0xg/flowcheck/internal/pages"
)

// Wikipedia simulates the app's search flow. Results appear ResultsDelay
// after the query is typed, measured on the session clock.
type Wikipedia struct {
	session *drivertest.Session
	// Articles maps a query to the result titles it returns.
	Articles     map[string][]string
	ResultsDelay time.Duration
}

// NewWikipedia wires the fake onto session with the home screen showing.
func NewWikipedia(session *drivertest.Session) *Wikipedia {
	w := &Wikipedia{
		session: session,
		Articles: map[string][]string{
			"Appium": {"Appium", "Appium (software)", "Selenium (software)"},
		},
		ResultsDelay: 2 * time.Second,
	}
	session.Set(pages.SearchButton, drivertest.NewElement("Search Wikipedia").
		OnAct(driver.Click, func(*drivertest.Session) { w.showSearch() }))
	return w
}

func (w *Wikipedia) showSearch() {
	input := drivertest.NewElement("")
	input.OnAct(driver.Fill, func(*drivertest.Session) { w.showResults(input.Value()) })
	w.session.Set(pages.SearchInput, input)
}

func (w *Wikipedia) showResults(query string) {
	var results []*drivertest.Element
	for _, title := range w.Articles[strings.TrimSpace(query)] {
		title := title
		results = append(results, drivertest.NewElement(title).
			VisibleAfter(w.session.Elapsed()+w.ResultsDelay).
			OnAct(driver.Click, func(*drivertest.Session) { w.showArticle(title) }))
	}
	w.session.Set(pages.SearchResult, results...)
}

func (w *Wikipedia) showArticle(title string) {
	w.session.Remove(pages.SearchResult)
	w.session.Remove(pages.SearchInput)
	w.session.Set(pages.ArticleTitle, drivertest.NewElement(title))
}
