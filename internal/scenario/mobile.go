package scenario

import (
	"context"
	"strings"

	"github.com/v0xg/flowcheck/internal/pages"
)

func init() {
	register(Scenario{
		Name:        "mobile/wikipedia-search",
		Kind:        KindMobile,
		Description: "searching Wikipedia for Appium opens its article",
		Run:         wikipediaSearch,
	})
}

func wikipediaSearch(ctx context.Context, t *T) error {
	home := pages.NewWikipediaHome(t.Exec, t.Env.Config.Wait.Long)

	if err := home.TapSearch(ctx); err != nil {
		return err
	}
	if err := home.EnterQuery(ctx, "Appium"); err != nil {
		return err
	}
	if err := home.TapFirstResult(ctx); err != nil {
		return err
	}

	displayed, err := home.IsArticleTitleDisplayed(ctx)
	if err != nil {
		return err
	}
	if !displayed {
		return fail("article title not displayed after opening the first result")
	}
	title, err := home.ArticleTitle(ctx)
	if err != nil {
		return err
	}
	if err := expectNonEmpty("article title", title); err != nil {
		return err
	}
	return expectContains("article title (lowercased)", strings.ToLower(title), "appium")
}
