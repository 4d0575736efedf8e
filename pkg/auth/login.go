package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pkg/browser"
	"github.com/pquerna/otp/totp"
	"github.com/pterm/pterm"
	"golang.org/x/oauth2"
)

const defaultClientID = "srclight-cli"

// LoginOptions configures the browser-based login flow.
type LoginOptions struct {
	// Endpoint is the instance base URL, already normalized.
	Endpoint string
	// NoBrowser prints the authorization URL instead of opening it.
	NoBrowser bool
	// TOTPSecret, when set, generates a current one-time code for instances
	// that require two-factor confirmation at token exchange.
	TOTPSecret string
	// ClientID overrides the registered CLI client ID.
	ClientID string
}

// Login runs the authorization-code flow against the instance: it opens the
// instance's authorize page in the browser, receives the code on a loopback
// listener, and exchanges it for an access token.
func Login(ctx context.Context, opts LoginOptions) (string, error) {
	clientID := opts.ClientID
	if clientID == "" {
		clientID = defaultClientID
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to open loopback listener: %w", err)
	}
	defer listener.Close()

	conf := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: fmt.Sprintf("http://%s/callback", listener.Addr()),
		Scopes:      []string{"user:all"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  opts.Endpoint + "/.auth/authorize",
			TokenURL: opts.Endpoint + "/.auth/token",
		},
	}

	state, err := randomState()
	if err != nil {
		return "", err
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			errCh <- fmt.Errorf("authorization response with mismatched state")
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			errCh <- fmt.Errorf("authorization denied: %s", r.URL.Query().Get("error"))
			http.Error(w, "authorization failed", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Logged in. You can close this tab and return to the terminal.")
		codeCh <- code
	})
	server := &http.Server{Handler: mux}
	go func() { _ = server.Serve(listener) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state)
	if opts.NoBrowser {
		pterm.Info.Println("Open this URL in your browser to log in:")
		pterm.Println()
		pterm.Println("  " + authURL)
		pterm.Println()
	} else {
		pterm.Info.Printf("Opening %s in your browser...\n", opts.Endpoint)
		if err := browser.OpenURL(authURL); err != nil {
			pterm.Warning.Println("Could not open a browser. Open this URL manually:")
			pterm.Println("  " + authURL)
		}
	}

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}

	exchangeOpts := []oauth2.AuthCodeOption{}
	if opts.TOTPSecret != "" {
		otpCode, err := totp.GenerateCode(opts.TOTPSecret, time.Now())
		if err != nil {
			return "", fmt.Errorf("failed to generate TOTP code: %w", err)
		}
		exchangeOpts = append(exchangeOpts, oauth2.SetAuthURLParam("totp_code", otpCode))
	}

	token, err := conf.Exchange(ctx, code, exchangeOpts...)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	return token.AccessToken, nil
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
