package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/errs"
	"github.com/v0xg/flowcheck/internal/executor"
	"github.com/v0xg/flowcheck/internal/locator"
)

const wikipediaPackage = "org.wikipedia.alpha"

func resourceID(name string) locator.Locator {
	return locator.ByAndroidUI(fmt.Sprintf(`new UiSelector().resourceId("%s:id/%s")`, wikipediaPackage, name))
}

// Wikipedia app locators.
var (
	SearchButton = locator.ByA11yID("Search Wikipedia").Describe("search button")
	SearchInput  = resourceID("search_src_text").Describe("search input")
	// Every result row shares this id; TapFirstResult takes the first.
	SearchResult = resourceID("page_list_item_title").Describe("search result title")
	ArticleTitle = resourceID("view_page_title_text").Describe("article title")
)

// WikipediaHome drives the search flow of the Wikipedia app. The app is
// slow to render on emulators, so every wait is stretched to wait.
type WikipediaHome struct {
	exec *executor.Executor
	wait time.Duration
}

// NewWikipediaHome returns the search flow driven by exec. Waits shorter
// than wait are stretched to it.
func NewWikipediaHome(exec *executor.Executor, wait time.Duration) *WikipediaHome {
	return &WikipediaHome{exec: exec, wait: wait}
}

func (w *WikipediaHome) spec(state executor.TargetState) executor.WaitSpec {
	spec := w.exec.Defaults().For(state)
	if w.wait > spec.Timeout {
		spec = spec.WithTimeout(w.wait)
	}
	return spec
}

// TapSearch opens the search field from the home screen.
func (w *WikipediaHome) TapSearch(ctx context.Context) error {
	return w.exec.Perform(ctx, SearchButton, w.spec(executor.Visible), executor.RequireUnique, driver.Click, "")
}

// EnterQuery replaces the search field contents with query.
func (w *WikipediaHome) EnterQuery(ctx context.Context, query string) error {
	return w.exec.Perform(ctx, SearchInput, w.spec(executor.Visible), executor.RequireUnique, driver.Fill, query)
}

// TapFirstResult opens the top search hit. Results share one resource id,
// so FirstMatch is deliberate here.
func (w *WikipediaHome) TapFirstResult(ctx context.Context) error {
	return w.exec.ClickFirst(ctx, SearchResult, w.spec(executor.Visible).Timeout)
}

// ArticleTitle waits for the article page and returns its title.
func (w *WikipediaHome) ArticleTitle(ctx context.Context) (string, error) {
	text, err := w.exec.ReadText(ctx, ArticleTitle, w.spec(executor.Visible), executor.RequireUnique)
	return strings.TrimSpace(text), err
}

// IsArticleTitleDisplayed waits for the article title to show and reports
// whether it did; only a timeout maps to false.
func (w *WikipediaHome) IsArticleTitleDisplayed(ctx context.Context) (bool, error) {
	err := w.exec.WaitFor(ctx, ArticleTitle, w.spec(executor.Visible), executor.RequireUnique)
	if err == nil {
		return true, nil
	}
	var failure *executor.Failure
	if errors.As(err, &failure) && failure.Kind == errs.WaitTimeout {
		return false, nil
	}
	return false, err
}
