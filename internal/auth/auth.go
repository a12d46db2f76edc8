// Package auth obtains credentials for the analytics reporting API.
package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"analytics-export/internal/components/telemetry"
	"analytics-export/internal/config"
	"analytics-export/lib/oauth"

	"github.com/pkg/browser"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// AnalyticsReadonlyScope is the only scope the exporter ever asks for.
const AnalyticsReadonlyScope = "https://www.googleapis.com/auth/analytics.readonly"

const (
	report_interactive_consent  = "interactive.consent"
	report_interactive_exchange = "interactive.exchange"
	report_cached_load          = "cached.load"
	report_cached_save          = "cached.save"
)

var tracer = otel.Tracer("analytics-export.internal.auth")

// Provider produces a token source usable for the analytics API.
//
// note: fault injection point
type Provider interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// NewProvider picks a Provider according to cfg.Auth.Mode.
func NewProvider(cfg config.Config, prompt io.Writer, tel telemetry.API) (Provider, error) {
	tel = telemetry.NewScopedAPI("auth", tel)

	switch cfg.Auth.Mode {
	case config.AuthInteractive, "":
		return NewInteractive(interactiveOptions(cfg, prompt), tel), nil
	case config.AuthCached:
		return NewCached(
			NewInteractive(interactiveOptions(cfg, prompt), tel),
			cfg.Auth.TokenCachePath,
			tel,
		), nil
	case config.AuthServiceAccount:
		return NewServiceAccount(cfg.CredentialPath), nil
	default:
		return nil, fmt.Errorf("unknown auth mode '%s'", cfg.Auth.Mode)
	}
}

func interactiveOptions(cfg config.Config, prompt io.Writer) InteractiveOptions {
	openBrowser := cfg.Auth.OpenBrowser == nil || *cfg.Auth.OpenBrowser
	return InteractiveOptions{
		CredentialPath: cfg.CredentialPath,
		Scopes:         []string{AnalyticsReadonlyScope},
		ConsentTimeout: cfg.Auth.ConsentTimeout.Std(),
		OpenBrowser:    openBrowser,
		Prompt:         prompt,
	}
}

type InteractiveOptions struct {
	// path to a client secret json document of an "installed" or "web" application
	CredentialPath string
	Scopes         []string
	ConsentTimeout time.Duration
	OpenBrowser    bool
	// the consent url is always written here, can be nil
	Prompt io.Writer
}

// Interactive runs the authorization code flow with a loopback redirect
// every time a token source is requested.
type Interactive struct {
	options InteractiveOptions
	tel     telemetry.API
	// replaced in tests to act as the user approving consent
	openUrl func(url string) error
}

func NewInteractive(options InteractiveOptions, tel telemetry.API) Interactive {
	return Interactive{
		options: options,
		tel:     tel,
		openUrl: browser.OpenURL,
	}
}

// OAuthConfig parses the client secret file.
func (i Interactive) OAuthConfig() (*oauth2.Config, error) {
	contents, err := os.ReadFile(i.options.CredentialPath)
	if err != nil {
		return nil, fmt.Errorf("read client secret: %w", err)
	}
	cfg, err := google.ConfigFromJSON(contents, i.options.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse client secret: %w", err)
	}
	return cfg, nil
}

// Token runs the full consent flow and returns a fresh token along with
// the oauth config it was issued for.
func (i Interactive) Token(ctx context.Context) (*oauth2.Token, *oauth2.Config, error) {
	ctx, span := tracer.Start(ctx, "Interactive.Token")
	defer span.End()

	cfg, err := i.OAuthConfig()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load oauth config")
		return nil, nil, err
	}

	state, err := oauth.GenerateState()
	if err != nil {
		return nil, nil, fmt.Errorf("generate oauth state: %w", err)
	}
	verifier := oauth.GenerateCodeVerifier()

	server, err := oauth.NewCallbackServer(state)
	if err != nil {
		return nil, nil, err
	}
	defer server.Close()

	cfg.RedirectURL = server.RedirectUrl()
	consentUrl := cfg.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	if i.options.Prompt != nil {
		fmt.Fprintf(i.options.Prompt, "Open the following url to authorize access to analytics:\n\n%s\n\n", consentUrl)
	}
	if i.options.OpenBrowser {
		err = i.openUrl(consentUrl)
		if err != nil {
			i.tel.ReportWarning(report_interactive_consent, fmt.Errorf("open browser: %w", err))
		}
	}

	waitCtx := ctx
	if i.options.ConsentTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, i.options.ConsentTimeout)
		defer cancel()
	}
	code, err := server.Wait(waitCtx)
	if err != nil {
		i.tel.ReportBroken(report_interactive_consent, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "consent did not complete")
		return nil, nil, err
	}

	token, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		i.tel.ReportBroken(report_interactive_exchange, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to exchange authorization code")
		return nil, nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	return token, cfg, nil
}

func (i Interactive) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, cfg, err := i.Token(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.TokenSource(ctx, token), nil
}

// ServiceAccount reads a service account key, no user interaction is needed.
type ServiceAccount struct {
	credentialPath string
}

func NewServiceAccount(credentialPath string) ServiceAccount {
	return ServiceAccount{credentialPath: credentialPath}
}

func (s ServiceAccount) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	contents, err := os.ReadFile(s.credentialPath)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, contents, AnalyticsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	return creds.TokenSource, nil
}
