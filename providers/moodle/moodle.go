// Package moodle talks to a Moodle site's mobile web-service API. Every
// data call is a form POST against one endpoint, selecting behavior via
// a named remote function.
package moodle

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"studysync/config"
	"studysync/providers"

	"github.com/go-resty/resty/v2"
)

const (
	tokenPath   = "/login/token.php"
	servicePath = "/webservice/rest/server.php"

	fnUserCourses = "core_enrol_get_users_courses"
	fnAssignments = "mod_assign_get_assignments"
)

// Session is the decrypted credential blob for Moodle.
type Session struct {
	BaseURL  string `json:"base_url"`
	Token    string `json:"token"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}

// SessionFromJSON restores a Session from a decrypted vault blob.
func SessionFromJSON(blob string) (*Session, error) {
	var s Session
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return nil, fmt.Errorf("invalid moodle session blob: %w", err)
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

func newClient() *resty.Client {
	timeout := 20 * time.Second
	if config.AppConfig != nil && config.AppConfig.SyncTimeoutSec > 0 {
		timeout = time.Duration(config.AppConfig.SyncTimeoutSec) * time.Second
	}
	return resty.New().SetTimeout(timeout)
}

// wsError is the error envelope Moodle returns with a 200 status; the
// HTTP code alone says nothing.
type wsError struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
	Error     string `json:"error"`
}

func (e wsError) failed() bool {
	return e.Exception != "" || e.ErrorCode != "" || e.Error != ""
}

// GetToken exchanges a username and password for a web-service token.
// Some deployments sit behind a portal login and cannot exchange
// credentials; those users paste a token obtained from their profile
// page instead, and this call is skipped.
func GetToken(baseURL, username, password string) (string, error) {
	resp, err := newClient().R().
		SetFormData(map[string]string{
			"username": username,
			"password": password,
			"service":  "moodle_mobile_app",
		}).
		Post(baseURL + tokenPath)
	if err != nil {
		return "", fmt.Errorf("%w: token exchange: %v", providers.ErrProvider, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", providers.ErrProvider, resp.StatusCode())
	}

	var body struct {
		Token string `json:"token"`
		wsError
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("%w: invalid token response", providers.ErrProvider)
	}
	if body.failed() || body.Token == "" {
		return "", fmt.Errorf("%w: %s", providers.ErrAuth, body.Message)
	}
	return body.Token, nil
}

// call POSTs one web-service function. An exception payload fails this
// call only; the caller decides whether the sync survives.
func call(s *Session, function string, params map[string]string, out interface{}) error {
	form := map[string]string{
		"wstoken":            s.Token,
		"wsfunction":         function,
		"moodlewsrestformat": "json",
	}
	for k, v := range params {
		form[k] = v
	}

	resp, err := newClient().R().
		SetFormData(form).
		Post(s.BaseURL + servicePath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", providers.ErrProvider, function, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", providers.ErrProvider, function, resp.StatusCode())
	}

	var werr wsError
	if err := json.Unmarshal(resp.Body(), &werr); err == nil && werr.failed() {
		if werr.ErrorCode == "invalidtoken" || werr.ErrorCode == "accessexception" {
			return fmt.Errorf("%w: %s", providers.ErrSessionExpired, werr.Message)
		}
		return fmt.Errorf("%w: %s: %s (%s)", providers.ErrProvider, function, werr.Message, werr.ErrorCode)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: %s: invalid response: %v", providers.ErrProvider, function, err)
	}
	return nil
}

// ListCourses returns the courses the session's user is enrolled in.
func ListCourses(s *Session) ([]providers.ExternalCourse, error) {
	var raw []struct {
		ID        int    `json:"id"`
		ShortName string `json:"shortname"`
		FullName  string `json:"fullname"`
	}
	err := call(s, fnUserCourses, map[string]string{
		"userid": strconv.Itoa(s.UserID),
	}, &raw)
	if err != nil {
		return nil, err
	}

	courses := make([]providers.ExternalCourse, 0, len(raw))
	for _, c := range raw {
		courses = append(courses, providers.ExternalCourse{
			ID:   strconv.Itoa(c.ID),
			Code: c.ShortName,
			Name: c.FullName,
		})
	}
	return courses, nil
}

// ListAssignments returns the assignments across the given courses. The
// remote function expects a repeated array parameter, serialized as
// indexed keys: courseids[0], courseids[1], ...
//
// Each assignment carries two ids; the course-module id (cmid) is the
// one used in user-facing deep links and is what we store as the
// external id, consistent with historical records.
func ListAssignments(s *Session, courses []providers.ExternalCourse) ([]providers.ExternalAssignment, error) {
	if len(courses) == 0 {
		return nil, nil
	}

	params := map[string]string{}
	for i, c := range courses {
		params[fmt.Sprintf("courseids[%d]", i)] = c.ID
	}

	byID := make(map[string]providers.ExternalCourse, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	var raw struct {
		Courses []struct {
			ID          int `json:"id"`
			Assignments []struct {
				ID      int    `json:"id"`
				CmID    int    `json:"cmid"`
				Name    string `json:"name"`
				DueDate int64  `json:"duedate"` // unix seconds, 0 = none
			} `json:"assignments"`
		} `json:"courses"`
	}
	if err := call(s, fnAssignments, params, &raw); err != nil {
		return nil, err
	}

	var out []providers.ExternalAssignment
	for _, course := range raw.Courses {
		ext := byID[strconv.Itoa(course.ID)]
		for _, a := range course.Assignments {
			var due *time.Time
			if a.DueDate > 0 {
				t := time.Unix(a.DueDate, 0)
				due = &t
			}
			out = append(out, providers.ExternalAssignment{
				ExternalID: strconv.Itoa(a.CmID),
				Title:      a.Name,
				DueDate:    due,
				CourseID:   strconv.Itoa(course.ID),
				CourseCode: ext.Code,
				CourseName: ext.Name,
			})
		}
	}
	return out, nil
}
