package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"
)

// pageQuerier evaluates querySelector/querySelectorAll inside the live page.
// It is the thin in-browser adapter behind the extraction policy; everything
// above it works against the scraper.DocumentQuerier port.
type pageQuerier struct {
	session *Session
}

type queryOneResult struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

func (q *pageQuerier) QueryOne(ctx context.Context, selector, attr string) (string, bool, error) {
	script, err := buildQueryOneScript(selector, attr)
	if err != nil {
		return "", false, err
	}
	var res queryOneResult
	if err := q.session.run(ctx, chromedp.Tasks{chromedp.Evaluate(script, &res)}); err != nil {
		return "", false, fmt.Errorf("evaluate selector %q: %w", selector, err)
	}
	return res.Value, res.Found, nil
}

func (q *pageQuerier) QueryAll(ctx context.Context, selector, attr string) ([]string, error) {
	script, err := buildQueryAllScript(selector, attr)
	if err != nil {
		return nil, err
	}
	var values []string
	if err := q.session.run(ctx, chromedp.Tasks{chromedp.Evaluate(script, &values)}); err != nil {
		return nil, fmt.Errorf("evaluate selector %q: %w", selector, err)
	}
	return values, nil
}

// The selector and attribute are JSON-encoded into the script so arbitrary
// quoting in CSS selectors cannot break out of the expression.
func buildQueryOneScript(selector, attr string) (string, error) {
	sel, attrLit, err := encodeArgs(selector, attr)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) { return { found: false, value: "" }; }
		const attr = %s;
		const v = attr ? (el.getAttribute(attr) || "") : (el.textContent || "");
		return { found: true, value: v };
	})()`, sel, attrLit), nil
}

func buildQueryAllScript(selector, attr string) (string, error) {
	sel, attrLit, err := encodeArgs(selector, attr)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`(() => {
		const attr = %s;
		return Array.from(document.querySelectorAll(%s)).map(el =>
			attr ? (el.getAttribute(attr) || "") : (el.textContent || ""));
	})()`, attrLit, sel), nil
}

func encodeArgs(selector, attr string) (string, string, error) {
	sel, err := json.Marshal(selector)
	if err != nil {
		return "", "", fmt.Errorf("encode selector: %w", err)
	}
	attrLit, err := json.Marshal(attr)
	if err != nil {
		return "", "", fmt.Errorf("encode attribute: %w", err)
	}
	return string(sel), string(attrLit), nil
}
