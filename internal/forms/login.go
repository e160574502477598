package forms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/seemicrminc/tutorwidgets/internal/models"
)

// DefaultPortalURL is where a successful portal login redirects the
// top-level browsing context.
const DefaultPortalURL = "https://seemii.vercel.app/"

// RedirectDelay is the fixed pause between a successful login and the
// scheduled redirect.
const RedirectDelay = 1500 * time.Millisecond

// LoginResult is the outcome of a successful credential exchange. The
// redirect is scheduled, not performed: the embedding page navigates the
// top frame to RedirectURL after Delay.
type LoginResult struct {
	Token       string          `json:"token"`
	User        json.RawMessage `json:"user"`
	RedirectURL string          `json:"redirect_url"`
	Delay       time.Duration   `json:"-"`
}

// LoginForm is the single-step portal login. Credentials go out
// form-encoded, not JSON, together with best-effort browser/OS
// fingerprints.
type LoginForm struct {
	cfg       Config
	announcer Announcer
	client    *http.Client
	endpoint  string
	portalURL string
	userAgent string

	username string
	password string

	submitting bool
	errMsg     string
	result     *LoginResult
}

func NewLogin(cfg Config, endpoint string, a Announcer) *LoginForm {
	return &LoginForm{
		cfg:       cfg,
		announcer: a,
		client:    &http.Client{Timeout: 15 * time.Second},
		endpoint:  endpoint,
		portalURL: DefaultPortalURL,
	}
}

func (l *LoginForm) Kind() string { return models.WidgetLogin }

// SetPortalURL overrides the redirect target. Empty keeps the default.
func (l *LoginForm) SetPortalURL(u string) {
	if u != "" {
		l.portalURL = u
	}
}

// PortalURL is the base the successful-login redirect points at.
func (l *LoginForm) PortalURL() string { return l.portalURL }

// SetUserAgent supplies the embedding browser's user agent for the
// fingerprint fields.
func (l *LoginForm) SetUserAgent(ua string) { l.userAgent = ua }

func (l *LoginForm) SetCredentials(username, password string) {
	l.username = username
	l.password = password
	l.errMsg = ""
}

func (l *LoginForm) Error() string        { return l.errMsg }
func (l *LoginForm) Result() *LoginResult { return l.result }

type loginResponse struct {
	Token    string          `json:"token"`
	User     json.RawMessage `json:"user"`
	Message  string          `json:"message"`
	Messages json.RawMessage `json:"messages"`
}

// Submit posts the credentials. On a token-bearing response it records the
// session hand-off and the pending redirect; on an error-shaped response
// or transport failure it surfaces a message and never schedules a
// redirect.
func (l *LoginForm) Submit(ctx context.Context) error {
	if l.submitting {
		return ErrSubmitInFlight
	}
	l.submitting = true
	defer func() {
		l.submitting = false
		announce(l.announcer, l.cfg.PublicID, l.Height())
	}()

	form := url.Values{}
	form.Set("user_name", l.username)
	form.Set("password", l.password)
	form.Set("browser", DetectBrowser(l.userAgent))
	form.Set("operatingSystem", DetectOS(l.userAgent))
	form.Set("ipaddress", "")
	form.Set("location", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		l.errMsg = "An error occurred. Please try again."
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := l.client.Do(req)
	if err != nil {
		l.errMsg = "An error occurred. Please try again."
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		l.errMsg = "An error occurred. Please try again."
		return err
	}

	data := decodeLoginBody(body)
	if data.Token != "" {
		l.result = &LoginResult{
			Token:       data.Token,
			User:        data.User,
			RedirectURL: l.portalURL + "?token=" + url.QueryEscape(data.Token),
			Delay:       RedirectDelay,
		}
		l.errMsg = ""
		return nil
	}

	l.errMsg = loginErrorMessage(data)
	return fmt.Errorf("login failed: %s", l.errMsg)
}

// decodeLoginBody tolerates both the object and the single-element array
// response shapes the endpoint has been seen to return.
func decodeLoginBody(body []byte) loginResponse {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var arr []loginResponse
		if err := json.Unmarshal(body, &arr); err == nil && len(arr) > 0 {
			return arr[0]
		}
		return loginResponse{}
	}
	var data loginResponse
	_ = json.Unmarshal(body, &data)
	return data
}

func loginErrorMessage(data loginResponse) string {
	if len(data.Messages) > 0 {
		var keyed map[string]string
		if err := json.Unmarshal(data.Messages, &keyed); err == nil && len(keyed) > 0 {
			keys := make([]string, 0, len(keyed))
			for k := range keyed {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, keyed[k])
			}
			return strings.Join(parts, ", ")
		}
		var single string
		if err := json.Unmarshal(data.Messages, &single); err == nil && single != "" {
			return single
		}
	}
	if data.Message != "" {
		return data.Message
	}
	return "Login failed. Please check your credentials."
}

func (l *LoginForm) Height() int {
	h := 520
	if l.errMsg != "" || l.result != nil {
		h += 70 // banner row
	}
	return h
}

func (l *LoginForm) Describe() View {
	v := View{
		Kind:        l.Kind(),
		Title:       l.cfg.WidgetTitle,
		AccentColor: l.cfg.AccentColor,
		Step:        1,
		TotalSteps:  1,
	}
	if l.errMsg != "" {
		v.Message = l.errMsg
	}
	return v
}
