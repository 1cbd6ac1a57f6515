package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// TokenResult contains the result of a MusicKit authorization flow.
type TokenResult struct {
	UserToken string
	err       error
}

func (t *TokenResult) Error() error {
	return t.err
}

// MusicKitHandler serves the browser-side MusicKit authorization flow.
// Implements the Handler interface for registration with a Router.
//
// GET / renders a page that configures MusicKit JS with the developer token
// and asks the user to sign in with their Apple ID; the page posts the
// resulting Music-User-Token back to /token.
type MusicKitHandler struct {
	developerToken string
	resultChan     chan TokenResult
	once           sync.Once
	tokenReceived  bool
	mu             sync.Mutex
}

// NewMusicKitHandler creates a handler seeded with the developer token the
// authorization page embeds.
func NewMusicKitHandler(developerToken string) *MusicKitHandler {
	return &MusicKitHandler{
		developerToken: developerToken,
		resultChan:     make(chan TokenResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *MusicKitHandler) Routes() []string {
	return []string{"/", "/token"}
}

// ServeHTTP dispatches between the authorization page and the token sink.
func (h *MusicKitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/token" && r.Method == http.MethodPost:
		h.handleToken(w, r)
	case r.URL.Path == "/" && r.Method == http.MethodGet:
		h.handlePage(w)
	default:
		http.NotFound(w, r)
	}
}

// handleToken accepts the Music-User-Token posted by the authorization page.
func (h *MusicKitHandler) handleToken(w http.ResponseWriter, r *http.Request) {
	// Only accept one token
	h.mu.Lock()
	if h.tokenReceived {
		h.mu.Unlock()
		http.Error(w, "Token already received", http.StatusBadRequest)
		return
	}
	h.tokenReceived = true
	h.mu.Unlock()

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Token == "" {
		h.Send(TokenResult{err: fmt.Errorf("authorization failed: no user token in request")})
		http.Error(w, "Missing token", http.StatusBadRequest)
		return
	}

	h.Send(TokenResult{UserToken: payload.Token})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (h *MusicKitHandler) handlePage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Authorize Apple Music</title>
    <script src="https://js-cdn.music.apple.com/musickit/v3/musickit.js" data-web-components async></script>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #fa2d48; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0 0 1.5rem 0; }
        button { background: #fa2d48; color: white; border: none; padding: 0.75rem 1.5rem;
                 border-radius: 6px; font-size: 1rem; cursor: pointer; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Apple Music</h1>
        <p id="status">Sign in to grant library access.</p>
        <button id="authorize">Authorize</button>
    </div>
    <script>
        document.addEventListener('musickitloaded', async () => {
            await MusicKit.configure({
                developerToken: %q,
                app: { name: 'applemusic-mcp', build: '1.0' },
            });
        });
        document.getElementById('authorize').addEventListener('click', async () => {
            const status = document.getElementById('status');
            try {
                const token = await MusicKit.getInstance().authorize();
                await fetch('/token', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify({ token: token }),
                });
                status.textContent = 'Authorized. You can close this window and return to the terminal.';
            } catch (err) {
                status.textContent = 'Authorization failed: ' + err;
            }
        });
    </script>
</body>
</html>
`, h.developerToken)
}

// Send sends the token result through the channel (only once).
func (h *MusicKitHandler) Send(result TokenResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving authorization completion.
//
// Channel will receive exactly one result and then be closed.
func (h *MusicKitHandler) Result() <-chan TokenResult {
	return h.resultChan
}
