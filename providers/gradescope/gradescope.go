// Package gradescope scrapes courses and assignments from a Gradescope
// account. Login is a two-step CSRF handshake; everything after it rides
// on three named cookies.
package gradescope

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"studysync/config"
	"studysync/providers"

	"github.com/PuerkitoBio/goquery"
)

// Cookie names that make up an authenticated session. signed_token is
// the proof of authentication; the generic session cookie alone is not.
const (
	sessionCookie  = "_gradescope_session"
	signedCookie   = "signed_token"
	rememberCookie = "remember_me"
)

// Session is the decrypted credential blob for Gradescope: the named
// cookie values harvested at login.
type Session struct {
	Cookies map[string]string `json:"cookies"`
}

// SessionFromJSON restores a Session from a decrypted vault blob.
func SessionFromJSON(blob string) (*Session, error) {
	var s Session
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return nil, fmt.Errorf("invalid gradescope session blob: %w", err)
	}
	return &s, nil
}

// ToJSON serializes the session for the vault.
func (s *Session) ToJSON() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Session) cookieHeader() string {
	pairs := make([]string, 0, len(s.Cookies))
	for name, value := range s.Cookies {
		pairs = append(pairs, name+"="+value)
	}
	return strings.Join(pairs, "; ")
}

func baseURL() string {
	if config.AppConfig != nil && config.AppConfig.GradescopeBaseURL != "" {
		return config.AppConfig.GradescopeBaseURL
	}
	return "https://www.gradescope.com"
}

// httpClient returns a client that never follows redirects: the 302 on
// login POST is the success signal and has to be read as-is, and a 302
// on an authenticated GET means the session died.
func httpClient() *http.Client {
	timeout := 20 * time.Second
	if config.AppConfig != nil && config.AppConfig.SyncTimeoutSec > 0 {
		timeout = time.Duration(config.AppConfig.SyncTimeoutSec) * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Login performs the two-step login: fetch the login page to harvest
// the anti-forgery token and bootstrap cookies, then POST credentials
// with redirects suppressed. Success is a 302 AND the presence of the
// signed_token cookie; a POST that "succeeds" without it is a failure.
func Login(email, password string) (*Session, error) {
	client := httpClient()

	resp, err := client.Get(baseURL() + "/login")
	if err != nil {
		return nil, fmt.Errorf("%w: fetching login page: %v", providers.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: login page returned %d", providers.ErrProvider, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing login page: %v", providers.ErrProvider, err)
	}

	token, ok := doc.Find("input[name='authenticity_token']").First().Attr("value")
	if !ok || token == "" {
		return nil, fmt.Errorf("%w: login page missing authenticity token", providers.ErrProvider)
	}

	cookies := map[string]string{}
	for _, c := range resp.Cookies() {
		cookies[c.Name] = c.Value
	}

	form := url.Values{}
	form.Set("authenticity_token", token)
	form.Set("session[email]", email)
	form.Set("session[password]", password)
	form.Set("session[remember_me]", "1")

	req, err := http.NewRequest(http.MethodPost, baseURL()+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", (&Session{Cookies: cookies}).cookieHeader())

	postResp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: posting login form: %v", providers.ErrProvider, err)
	}
	defer postResp.Body.Close()

	if postResp.StatusCode != http.StatusFound {
		// 200 here is the login form re-rendered with an error message.
		return nil, providers.ErrAuth
	}

	for _, c := range postResp.Cookies() {
		cookies[c.Name] = c.Value
	}
	if cookies[signedCookie] == "" {
		return nil, fmt.Errorf("%w: signed cookie missing after login", providers.ErrAuth)
	}

	session := &Session{Cookies: map[string]string{}}
	for _, name := range []string{sessionCookie, signedCookie, rememberCookie} {
		if v := cookies[name]; v != "" {
			session.Cookies[name] = v
		}
	}
	return session, nil
}

// get fetches an authenticated page. A redirect response means
// Gradescope bounced us to the login page: the session expired.
func get(s *Session, pagePath string) (*goquery.Document, error) {
	req, err := http.NewRequest(http.MethodGet, baseURL()+pagePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Cookie", s.cookieHeader())

	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", providers.ErrProvider, pagePath, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusFound || resp.StatusCode == http.StatusUnauthorized:
		return nil, providers.ErrSessionExpired
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %s returned %d", providers.ErrProvider, pagePath, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", providers.ErrProvider, pagePath, err)
	}
	return doc, nil
}

// ListCourses scrapes the account dashboard for course links grouped by
// term.
func ListCourses(s *Session) ([]providers.ExternalCourse, error) {
	doc, err := get(s, "/account")
	if err != nil {
		return nil, err
	}

	var courses []providers.ExternalCourse
	doc.Find(".courseList--term").Each(func(_ int, termSel *goquery.Selection) {
		term := strings.TrimSpace(termSel.Text())
		termSel.Next().Find("a.courseBox").Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || !strings.HasPrefix(href, "/courses/") {
				return
			}
			courses = append(courses, providers.ExternalCourse{
				ID:   strings.TrimPrefix(href, "/courses/"),
				Code: strings.TrimSpace(a.Find(".courseBox--shortname").Text()),
				Name: strings.TrimSpace(a.Find(".courseBox--name").Text()),
				Term: term,
			})
		})
	})
	return courses, nil
}

// ListAssignments fetches each course page and parses its assignments
// table. Pages are fetched strictly sequentially; parallel requests are
// a good way to get an account locked by the site's bot detection.
// Rows with an unparsable or missing due date are skipped, not errors.
func ListAssignments(s *Session, courses []providers.ExternalCourse) ([]providers.ExternalAssignment, error) {
	var out []providers.ExternalAssignment
	for _, course := range courses {
		doc, err := get(s, "/courses/"+course.ID)
		if err != nil {
			return nil, err
		}

		doc.Find("#assignments-student-table tbody tr").Each(func(_ int, row *goquery.Selection) {
			link := row.Find("th a").First()
			href, ok := link.Attr("href")
			if !ok || href == "" {
				// Unreleased assignments render without a detail link;
				// there is no stable id to import them under.
				return
			}

			due := ParseDueDate(row.Find(".submissionTimeChart--dueDate").First().Text())
			if due == nil {
				return
			}

			status := strings.TrimSpace(row.Find("td.submissionStatus").First().Text())
			if status == "" {
				status = strings.TrimSpace(row.Find("td").First().Text())
			}

			out = append(out, providers.ExternalAssignment{
				ExternalID: path.Base(strings.TrimSuffix(href, "/")),
				Title:      strings.TrimSpace(link.Text()),
				DueDate:    due,
				CourseID:   course.ID,
				CourseCode: course.Code,
				CourseName: course.Name,
				Submitted:  strings.Contains(status, "Submitted"),
			})
		})
	}
	return out, nil
}
