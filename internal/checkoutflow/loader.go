package checkoutflow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// DefaultScriptURL is the gateway's inline checkout script.
const DefaultScriptURL = "https://js.paystack.co/v1/inline.js"

// ScriptLoader makes the gateway widget available before it is opened.
type ScriptLoader interface {
	Load(ctx context.Context) error
}

type LoaderFunc func(ctx context.Context) error

func (f LoaderFunc) Load(ctx context.Context) error { return f(ctx) }

// OnceLoader runs the wrapped loader until it first succeeds and is a no-op
// afterwards. Share one instance per process.
type OnceLoader struct {
	mu     sync.Mutex
	loaded bool
	load   ScriptLoader
}

func Once(load ScriptLoader) *OnceLoader {
	return &OnceLoader{load: load}
}

func (l *OnceLoader) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		return nil
	}
	if err := l.load.Load(ctx); err != nil {
		return err
	}
	l.loaded = true
	return nil
}

// Loaded reports whether the script has been loaded.
func (l *OnceLoader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// FetchScript returns a loader that downloads the script at url and fails
// unless the server answers 200.
func FetchScript(client *http.Client, url string) ScriptLoader {
	return LoaderFunc(func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to load payment script: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to load payment script: %s", resp.Status)
		}
		return nil
	})
}
