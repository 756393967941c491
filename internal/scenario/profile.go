// Package scenario declares how a simulated user of the prayer wall behaves.
//
// A Profile is a plain configuration record: a think-time policy plus the
// weighted tasks a user picks from on every iteration. The host in
// internal/performance reads it explicitly; profiles are registered by
// hand in registry.go rather than discovered.
package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// PrayerDataPath is the endpoint every simulated user fetches.
	PrayerDataPath = "/getPrayerData"

	// PrayerDataQuery selects the hall whose prayer data is fetched.
	PrayerDataQuery = "hall=hall-h3-new"
)

// ThinkTime is a uniform random pause between Min and Max, both inclusive.
type ThinkTime struct {
	Min time.Duration `json:"min" yaml:"min"`
	Max time.Duration `json:"max" yaml:"max"`
}

// Between returns a think-time policy drawing uniformly from [min, max].
func Between(min, max time.Duration) ThinkTime {
	return ThinkTime{Min: min, Max: max}
}

// Draw returns one pause duration. A nil r uses the global source.
func (t ThinkTime) Draw(r *rand.Rand) time.Duration {
	span := int64(t.Max - t.Min)
	if span <= 0 {
		return t.Min
	}
	if r == nil {
		return t.Min + time.Duration(rand.Int63n(span+1))
	}
	return t.Min + time.Duration(r.Int63n(span+1))
}

// String renders the policy the way it is configured, e.g. "between(1s, 5s)".
func (t ThinkTime) String() string {
	return fmt.Sprintf("between(%s, %s)", t.Min, t.Max)
}

// Task is one scripted action: a single HTTP request to a fixed target.
type Task struct {
	// Name identifies the task in output.
	Name string `json:"name" yaml:"name"`

	// Weight is the relative chance of picking this task.
	Weight int `json:"weight" yaml:"weight"`

	// Method is the HTTP method.
	Method string `json:"method" yaml:"method"`

	// Path is the relative request path, starting with "/".
	Path string `json:"path" yaml:"path"`

	// Query is the raw query string, without the leading "?".
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
}

// Target returns the path and query as sent, used as the stats entry name.
func (t *Task) Target() string {
	if t.Query == "" {
		return t.Path
	}
	return t.Path + "?" + t.Query
}

// URL resolves the task against the target host.
//
// A path prefix on the host is kept ("http://h/api" + "/getPrayerData"),
// any query or fragment on the host is dropped so the task query is sent
// exactly as declared.
func (t *Task) URL(host string) (string, error) {
	base, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", host, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", fmt.Errorf("invalid host %q: scheme must be http or https", host)
	}
	if base.Host == "" {
		return "", fmt.Errorf("invalid host %q: missing host name", host)
	}

	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + t.Path
	u.RawPath = ""
	u.RawQuery = t.Query
	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}

// NewRequest builds the request for this task. It never carries a body.
func (t *Task) NewRequest(ctx context.Context, host string) (*http.Request, error) {
	target, err := t.URL(host)
	if err != nil {
		return nil, err
	}
	return http.NewRequestWithContext(ctx, t.Method, target, http.NoBody)
}

func (t *Task) validate() error {
	if t.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if t.Weight <= 0 {
		return fmt.Errorf("task %s: weight must be > 0", t.Name)
	}
	if t.Method == "" {
		return fmt.Errorf("task %s: method is required", t.Name)
	}
	if !strings.HasPrefix(t.Path, "/") || strings.HasPrefix(t.Path, "//") {
		return fmt.Errorf("task %s: path %q must be relative and start with '/'", t.Name, t.Path)
	}
	if strings.ContainsAny(t.Path, "?#") {
		return fmt.Errorf("task %s: path %q must not contain a query or fragment", t.Name, t.Path)
	}
	u, err := url.Parse(t.Path)
	if err != nil {
		return fmt.Errorf("task %s: invalid path %q: %w", t.Name, t.Path, err)
	}
	if u.Scheme != "" || u.Host != "" {
		return fmt.Errorf("task %s: path %q must not name a scheme or host", t.Name, t.Path)
	}
	if _, err := url.ParseQuery(t.Query); err != nil {
		return fmt.Errorf("task %s: invalid query %q: %w", t.Name, t.Query, err)
	}
	return nil
}

// Profile describes one kind of simulated user.
type Profile struct {
	// Name of the user type.
	Name string `json:"name" yaml:"name"`

	// WaitTime is applied after every task.
	WaitTime ThinkTime `json:"waitTime" yaml:"waitTime"`

	// Tasks the user picks from, by weight.
	Tasks []Task `json:"tasks" yaml:"tasks"`
}

// WebsiteUser is the prayer wall visitor: it fetches the H3 (new) hall's
// prayer data and thinks for one to five seconds between fetches.
func WebsiteUser() *Profile {
	return &Profile{
		Name:     "WebsiteUser",
		WaitTime: Between(1*time.Second, 5*time.Second),
		Tasks: []Task{
			{
				Name:   "access_prayer",
				Weight: 1,
				Method: http.MethodGet,
				Path:   PrayerDataPath,
				Query:  PrayerDataQuery,
			},
		},
	}
}

// Validate checks the profile invariants.
func (p *Profile) Validate() error {
	if p.WaitTime.Min < 0 {
		return fmt.Errorf("profile %s: think time lower bound %s must not be negative", p.Name, p.WaitTime.Min)
	}
	if p.WaitTime.Min > p.WaitTime.Max {
		return fmt.Errorf("profile %s: think time lower bound %s exceeds upper bound %s",
			p.Name, p.WaitTime.Min, p.WaitTime.Max)
	}
	if len(p.Tasks) == 0 {
		return fmt.Errorf("profile %s: at least one task is required", p.Name)
	}
	for i := range p.Tasks {
		if err := p.Tasks[i].validate(); err != nil {
			return fmt.Errorf("profile %s: %w", p.Name, err)
		}
	}
	return nil
}

// Pick chooses the next task by weight. A nil r uses the global source.
func (p *Profile) Pick(r *rand.Rand) *Task {
	if len(p.Tasks) == 1 {
		return &p.Tasks[0]
	}

	total := 0
	for _, t := range p.Tasks {
		total += t.Weight
	}

	var n int
	if r == nil {
		n = rand.Intn(total)
	} else {
		n = r.Intn(total)
	}

	for i := range p.Tasks {
		n -= p.Tasks[i].Weight
		if n < 0 {
			return &p.Tasks[i]
		}
	}
	return &p.Tasks[len(p.Tasks)-1]
}
