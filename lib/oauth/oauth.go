package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"
)

var tracer = otel.Tracer("analytics-export.lib.oauth")

var (
	ErrStateMismatch = errors.New("oauth callback state does not match")
	ErrConsentDenied = errors.New("consent was denied")
	ErrMissingCode   = errors.New("oauth callback did not contain an authorization code")
)

// GenerateState creates the opaque value used to tie a redirect to the request that started it.
func GenerateState() (string, error) {
	return random.String(32)
}

// GenerateCodeVerifier creates a PKCE code verifier.
func GenerateCodeVerifier() string {
	return oauth2.GenerateVerifier()
}

type callbackResult struct {
	code string
	err  error
}

// CallbackServer listens on a random loopback port for exactly one
// authorization-code redirect.
type CallbackServer struct {
	listener net.Listener
	server   *http.Server
	state    string
	results  chan callbackResult
}

func NewCallbackServer(state string) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}

	s := &CallbackServer{
		listener: listener,
		state:    state,
		results:  make(chan callbackResult, 1),
	}

	router := mux.NewRouter()
	router.HandleFunc("/", s.handleRedirect).Methods(http.MethodGet)
	s.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: time.Second * 10,
	}

	go func() {
		err := s.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.deliver(callbackResult{err: err})
		}
	}()

	return s, nil
}

// RedirectUrl is the url the authorization server should redirect to.
func (s *CallbackServer) RedirectUrl() string {
	return fmt.Sprintf("http://%s/", s.listener.Addr().String())
}

func (s *CallbackServer) deliver(result callbackResult) {
	select {
	case s.results <- result:
	default:
	}
}

func (s *CallbackServer) handleRedirect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		err := fmt.Errorf("%w: %s %s", ErrConsentDenied, errCode, query.Get("error_description"))
		s.deliver(callbackResult{err: err})
		http.Error(w, "Authorization failed, you may close this window.", http.StatusBadRequest)
		return
	}
	if query.Get("state") != s.state {
		s.deliver(callbackResult{err: ErrStateMismatch})
		http.Error(w, "Authorization failed, you may close this window.", http.StatusBadRequest)
		return
	}
	code := query.Get("code")
	if code == "" {
		s.deliver(callbackResult{err: ErrMissingCode})
		http.Error(w, "Authorization failed, you may close this window.", http.StatusBadRequest)
		return
	}

	s.deliver(callbackResult{code: code})
	w.Header().Set("content-type", "text/plain; charset=utf-8")
	w.Write([]byte("Authorization complete, you may close this window."))
}

// Wait blocks until a redirect arrives or ctx is done.
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "CallbackServer.Wait")
	defer span.End()

	span.SetAttributes(attribute.String("redirect_url", s.RedirectUrl()))

	select {
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		span.SetStatus(codes.Error, "gave up waiting for oauth callback")
		return "", fmt.Errorf("wait for oauth callback: %w", ctx.Err())
	case result := <-s.results:
		if result.err != nil {
			span.RecordError(result.err)
			span.SetStatus(codes.Error, "oauth callback failed")
			return "", result.err
		}
		return result.code, nil
	}
}

func (s *CallbackServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	return s.server.Shutdown(ctx)
}
