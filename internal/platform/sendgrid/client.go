package sendgrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/yungbote/rolodex-backend/internal/platform/ctxutil"
	"github.com/yungbote/rolodex-backend/internal/platform/envutil"
	"github.com/yungbote/rolodex-backend/internal/platform/httpx"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

type Client interface {
	Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error)
}

type Config struct {
	APIKey           string
	BaseURL          string
	DefaultFromEmail string
	DefaultFromName  string
	Timeout          time.Duration
	MaxRetries       int
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:           strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
		BaseURL:          strings.TrimSpace(os.Getenv("SENDGRID_BASE_URL")),
		DefaultFromEmail: strings.TrimSpace(os.Getenv("SENDGRID_FROM_EMAIL")),
		DefaultFromName:  strings.TrimSpace(os.Getenv("SENDGRID_FROM_NAME")),
		Timeout:          envutil.Seconds("SENDGRID_TIMEOUT_SECONDS", 30*time.Second),
		MaxRetries:       envutil.Int("SENDGRID_MAX_RETRIES", 4),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 4
	}

	request := sg.GetRequest(cfg.APIKey, "/v3/mail/send", cfg.BaseURL)
	request.Method = http.MethodPost

	return &client{
		log:        log.With("client", "SendGridClient"),
		cfg:        cfg,
		sendClient: &sg.Client{Request: request},
		maxRetries: cfg.MaxRetries,
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	sendClient *sg.Client
	maxRetries int
}

type EmailAddress struct {
	Email string
	Name  string
}

type SendEmailRequest struct {
	From    EmailAddress
	To      []EmailAddress
	Subject string
	Text    string
	HTML    string
}

type SendEmailResult struct {
	StatusCode int
	MessageID  string
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	if c == nil || c.sendClient == nil {
		return nil, fmt.Errorf("sendgrid client unavailable")
	}

	if strings.TrimSpace(req.From.Email) == "" {
		req.From.Email = c.cfg.DefaultFromEmail
		if strings.TrimSpace(req.From.Name) == "" {
			req.From.Name = c.cfg.DefaultFromName
		}
	}
	req.From.Email = strings.TrimSpace(req.From.Email)
	req.Subject = strings.TrimSpace(req.Subject)

	if req.From.Email == "" {
		return nil, fmt.Errorf("sendgrid: From.Email required (or set SENDGRID_FROM_EMAIL)")
	}
	if len(req.To) == 0 {
		return nil, fmt.Errorf("sendgrid: To required")
	}
	if req.Subject == "" {
		return nil, fmt.Errorf("sendgrid: Subject required")
	}
	if strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.HTML) == "" {
		return nil, fmt.Errorf("sendgrid: Text or HTML content required")
	}

	message := buildMessage(req)

	ctx = ctxutil.Default(ctx)

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, err := c.sendOnce(ctx, message)
		if err == nil {
			return &SendEmailResult{
				StatusCode: resp.StatusCode,
				MessageID:  strings.TrimSpace(http.Header(resp.Headers).Get("X-Message-Id")),
			}, nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return nil, err
		}

		var headers http.Header
		if resp != nil {
			headers = http.Header(resp.Headers)
		}
		fallback := httpx.Backoff(time.Second, attempt, 10*time.Second)
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(headers, fallback, 10*time.Second))

		c.log.Warn("SendGrid request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
	}

	return nil, errors.New("unreachable retry loop")
}

func buildMessage(req SendEmailRequest) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(req.From.Name, req.From.Email))
	m.Subject = req.Subject

	p := mail.NewPersonalization()
	for _, to := range req.To {
		p.AddTos(mail.NewEmail(strings.TrimSpace(to.Name), strings.TrimSpace(to.Email)))
	}
	m.AddPersonalizations(p)

	if t := strings.TrimSpace(req.Text); t != "" {
		m.AddContent(mail.NewContent("text/plain", t))
	}
	if h := strings.TrimSpace(req.HTML); h != "" {
		m.AddContent(mail.NewContent("text/html", h))
	}
	return m
}

func (c *client) sendOnce(ctx context.Context, message *mail.SGMailV3) (*rest.Response, error) {
	sendCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.sendClient.SendWithContext(sendCtx, message)
	if err != nil {
		return resp, err
	}
	if resp == nil {
		return nil, fmt.Errorf("sendgrid: nil response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{StatusCode: resp.StatusCode, Body: resp.Body}
		var er errorResponse
		if json.Unmarshal([]byte(resp.Body), &er) == nil && len(er.Errors) > 0 {
			he.Errors = er.Errors
		}
		return resp, he
	}
	return resp, nil
}

type errorItem struct {
	Message string `json:"message"`
	Field   any    `json:"field,omitempty"`
	Help    any    `json:"help,omitempty"`
}

type errorResponse struct {
	Errors []errorItem `json:"errors"`
}

type HTTPError struct {
	StatusCode int
	Body       string
	Errors     []errorItem
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "sendgrid: <nil error>"
	}
	if len(e.Errors) > 0 && strings.TrimSpace(e.Errors[0].Message) != "" {
		return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Errors[0].Message)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}
