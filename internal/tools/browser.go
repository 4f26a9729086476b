package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// BrowserTool drives a headless browser. Besides the usual navigation it
// exposes 'console_exec', which evaluates JavaScript inside the page and
// awaits any promise it returns — the retrieval pipeline uses it to
// re-fetch a URL with the page's own origin and cookies.
type BrowserTool struct {
	mu            sync.Mutex
	allocCtx      context.Context
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

func NewBrowserTool() *BrowserTool {
	return &BrowserTool{}
}

func (b *BrowserTool) Name() string {
	return "browser"
}

func (b *BrowserTool) Description() string {
	return "Control a browser to interact with websites. The browser stays open until you call 'close'. Actions: 'navigate', 'console_exec', 'view', 'close'."
}

func (b *BrowserTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"enum":        []string{"navigate", "console_exec", "view", "close"},
				"description": "The action to perform.",
			},
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to navigate to (required for 'navigate')",
			},
			"javascript": map[string]any{
				"type":        "string",
				"description": "JavaScript to run in the page (required for 'console_exec'). A returned promise is awaited.",
			},
		},
		"required": []string{"action"},
	}
}

func (b *BrowserTool) initBrowser(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		select {
		case <-b.browserCtx.Done():
			b.cleanup()
		default:
			return nil
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx)

	return chromedp.Run(b.browserCtx)
}

func (b *BrowserTool) cleanup() {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.browserCtx = nil
	b.allocCtx = nil
}

func (b *BrowserTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Action     string `json:"action"`
		URL        string `json:"url"`
		JavaScript string `json:"javascript"`
	}

	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %v", err)
	}

	if args.Action == "close" {
		b.mu.Lock()
		b.cleanup()
		b.mu.Unlock()
		return "Successfully closed the browser.", nil
	}

	if err := b.initBrowser(ctx); err != nil {
		return "", fmt.Errorf("failed to initialize browser: %v", err)
	}

	actionCtx, cancel := context.WithTimeout(b.browserCtx, 60*time.Second)
	defer cancel()

	var result string
	var err error

	switch args.Action {
	case "navigate":
		if args.URL == "" {
			return "Error: url is required for 'navigate'", nil
		}
		err = chromedp.Run(actionCtx, chromedp.Navigate(args.URL))
		result = fmt.Sprintf("Successfully navigated to %s", args.URL)

	case "console_exec":
		if args.JavaScript == "" {
			return "Error: javascript is required for 'console_exec'", nil
		}
		// Wrap in an async IIFE so 'return' statements and promises work.
		expr := fmt.Sprintf("(async () => { %s })()", args.JavaScript)
		err = chromedp.Run(actionCtx,
			chromedp.Evaluate(expr, &result, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
				return p.WithAwaitPromise(true).WithReturnByValue(true)
			}),
		)

	case "view":
		err = chromedp.Run(actionCtx,
			chromedp.Evaluate("document.body ? document.body.innerText : ''", &result),
		)
		if len(result) > 50000 {
			result = result[:50000] + "\n... (truncated)"
		}

	default:
		return "Invalid action", nil
	}

	if err != nil {
		return fmt.Sprintf("Browser action failed: %v", err), nil
	}

	return result, nil
}
