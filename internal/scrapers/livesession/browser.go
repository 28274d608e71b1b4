package livesession

import (
	"context"
	"errors"
	"fmt"

	pw "github.com/playwright-community/playwright-go"
)

// Page is the part of a browser tab the adapter drives.
type Page interface {
	Goto(url string) error
	Evaluate(script string, arg any) (any, error)
	// Content returns the serialized DOM as it currently is.
	Content() (string, error)
}

type Browser interface {
	NewPage() (Page, error)
	Close() error
}

// Launcher starts a browser.
//
// note: fault injection point
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// PlaywrightLauncher launches chromium through playwright. It is headed by
// default since a person has to interact with the page before it is read.
type PlaywrightLauncher struct {
	Headless       bool
	ExecutablePath string
	// Install downloads the playwright driver and browsers before launching.
	Install bool
}

func (l PlaywrightLauncher) Launch(ctx context.Context) (Browser, error) {
	if l.Install {
		err := pw.Install(&pw.RunOptions{})
		if err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}

	instance, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	opts := pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(l.Headless),
		Args:     []string{"--window-size=1920,1080"},
	}
	if l.ExecutablePath != "" {
		opts.ExecutablePath = pw.String(l.ExecutablePath)
	}
	browser, err := instance.Chromium.Launch(opts)
	if err != nil {
		instance.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	return playwrightBrowser{instance: instance, browser: browser}, nil
}

type playwrightBrowser struct {
	instance *pw.Playwright
	browser  pw.Browser
}

func (b playwrightBrowser) NewPage() (Page, error) {
	page, err := b.browser.NewPage(pw.BrowserNewPageOptions{
		Viewport: &pw.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		return nil, err
	}
	return playwrightPage{page: page}, nil
}

func (b playwrightBrowser) Close() error {
	return errors.Join(b.browser.Close(), b.instance.Stop())
}

type playwrightPage struct {
	page pw.Page
}

func (p playwrightPage) Goto(url string) error {
	_, err := p.page.Goto(url, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateNetworkidle,
	})
	return err
}

func (p playwrightPage) Evaluate(script string, arg any) (any, error) {
	return p.page.Evaluate(script, arg)
}

func (p playwrightPage) Content() (string, error) {
	return p.page.Content()
}
