package activity

import (
	"net/url"
	"regexp"
	"strings"
)

// Person holds attributes to create or update for an identified visitor.
type Person struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	MobilePhone string `json:"mobile_phone,omitempty"`
	Title       string `json:"title,omitempty"`
}

// Company holds attributes for the company associated with an
// identified visitor.
type Company struct {
	Domain        string `json:"domain"`
	Name          string `json:"name,omitempty"`
	Description   string `json:"description,omitempty"`
	Industry      string `json:"industry,omitempty"`
	LinkedinURL   string `json:"linkedin_url,omitempty"`
	Founded       string `json:"founded,omitempty"`
	EmployeeCount int    `json:"employee_count,omitempty"`
}

// Identify is the activity logged when a visitor self-identifies.
type Identify struct {
	Email   string
	Person  *Person
	Company *Company
}

func (Identify) Type() EventType { return EventTypeIdentify }
func (Identify) Endpoint() string { return "/identify" }

// Data includes the company only when its domain matches the email's
// domain, preventing spurious company association from untrusted
// third-party payloads.
func (i Identify) Data(ctx *Context) map[string]any {
	person := Person{}
	if i.Person != nil {
		person = *i.Person
	}
	person.Email = i.Email

	data := map[string]any{
		"person": person,
	}

	if i.Company != nil {
		companyDomain := DomainForURL(i.Company.Domain)
		if companyDomain != "" && companyDomain == DomainForEmail(i.Email) {
			data["company"] = *i.Company
		}
	}

	return data
}

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._+%-]+@[A-Za-z0-9.-]+[.][A-Za-z]+$`)

// ValidateEmail reports whether email is a plausible address. Failure is
// an expected silent no-op for callers, not an error.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// DomainForEmail extracts the lowercased domain of an email address, or
// "" when the address has no domain part.
func DomainForEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// DomainForURL extracts the lowercased registrable host of a URL or
// bare domain, dropping any scheme, path and "www." prefix.
func DomainForURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
