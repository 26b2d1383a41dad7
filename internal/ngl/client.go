package ngl

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/itsmrshow/nglsend/internal/logging"
)

const (
	defaultSubmitURL = "https://ngl.link/api/submit"
	defaultOrigin    = "https://ngl.link"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	requestTimeout = 15 * time.Second

	// Connection-level retry policy for transient server errors.
	retryMax     = 3
	retryWaitMin = 1 * time.Second
	retryWaitMax = 8 * time.Second
)

// retryStatus lists the server errors retried below the submission loop.
// Anything else, including 429, surfaces to the caller on the first try.
var retryStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client submits anonymous messages to the NGL API.
//
// Each Send issues exactly one logical submission. Transient 5xx
// responses are retried at the connection level before a result
// surfaces; the caller only ever sees the final classified Outcome.
type Client struct {
	http      *retryablehttp.Client
	submitURL string
	origin    string
	userAgent string
	logger    *logging.Logger
}

// NewClient creates a client for the NGL submission endpoint
func NewClient(logger *logging.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = retryWaitMin
	rc.RetryWaitMax = retryWaitMax
	rc.Logger = nil
	rc.HTTPClient = &http.Client{Timeout: requestTimeout}
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		http:      rc,
		submitURL: defaultSubmitURL,
		origin:    defaultOrigin,
		userAgent: defaultUserAgent,
		logger:    logger.WithComponent("ngl-client"),
	}
}

// WithUserAgent overrides the advertised browser user agent.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// checkRetry retries transient server errors only. Transport errors are
// surfaced immediately so the loop can classify them.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil || resp == nil {
		return false, err
	}
	return retryStatus[resp.StatusCode], nil
}

// Send performs one anonymous-message submission and classifies the
// result. The device ID is regenerated on every call; the service uses
// it to tell submitters apart, so it must never be reused.
func (c *Client) Send(ctx context.Context, username, message string) Outcome {
	form := url.Values{
		"username": {username},
		"question": {message},
		"deviceId": {uuid.NewString()},
		"gameSlug": {""},
		"referrer": {""},
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.submitURL, strings.NewReader(form.Encode()))
	if err != nil {
		return RequestError(err.Error())
	}

	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Origin", c.origin)
	req.Header.Set("Referer", c.origin+"/"+username)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.http.Do(req)
	if err != nil {
		outcome := classifyError(err)
		c.logger.Debug().
			Str("reason", outcome.Reason.String()).
			Err(err).
			Msg("Submission attempt failed")
		return outcome
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return Accepted()
	case http.StatusTooManyRequests:
		return RateLimited()
	default:
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Msg("Submission rejected")
		return UnexpectedStatus(resp.StatusCode)
	}
}

// classifyError maps a transport error onto the outcome taxonomy.
func classifyError(err error) Outcome {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TimedOut()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TimedOut()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ConnectionFailed()
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return ConnectionFailed()
	}

	return RequestError(err.Error())
}
