package agent

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/unifygtm/intent-go/intent/activity"
)

// NavatticOrigin is the origin of the Navattic product-demo widget.
const NavatticOrigin = "https://capture.navattic.com"

// navatticEventType is the wire-level type field of a Navattic widget
// message.
type navatticEventType string

const (
	navatticStartFlow    navatticEventType = "START_FLOW"
	navatticViewStep     navatticEventType = "VIEW_STEP"
	navatticCompleteFlow navatticEventType = "COMPLETE_FLOW"
	navatticIdentifyUser navatticEventType = "IDENTIFY_USER"
)

// Track event names produced for Navattic demo events. These are the
// names an EventFilter for the NavatticProductDemos integration selects
// on.
const (
	NavatticDemoStartedEvent    = "Navattic Demo Started"
	NavatticDemoStepViewedEvent = "Navattic Demo Step Viewed"
	NavatticDemoCompletedEvent  = "Navattic Demo Completed"
)

// Navattic property objects and sources.
const (
	navatticObjectEndUser        = "END_USER"
	navatticObjectCompanyAccount = "COMPANY_ACCOUNT"
	navatticSourceForm           = "FORM"
)

type navatticMessage struct {
	Type       navatticEventType  `json:"type"`
	Flow       string             `json:"flow"`
	Step       string             `json:"step"`
	Properties []navatticProperty `json:"properties"`
}

// navatticProperty is one entry in a Navattic message's structured
// attribute list.
type navatticProperty struct {
	Object string `json:"object"`
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

func (a *Agent) handleNavatticMessageLocked(msg Message) {
	var event navatticMessage
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		a.log.Debug("ignoring malformed widget message", "origin", msg.Origin)
		return
	}

	if event.Type == navatticIdentifyUser {
		email, person, company := navatticIdentity(event.Properties)
		a.maybeIdentifyEmailLocked(email, person, company)
		return
	}

	name, properties := navatticTrackEvent(event)
	if name == "" || !a.trackOptions.NavatticProductDemos.Enabled(name) {
		return
	}
	activity.Send(a.ctx, activity.Track{Name: name, Properties: properties})
}

func navatticTrackEvent(event navatticMessage) (string, map[string]any) {
	properties := map[string]any{}
	if event.Flow != "" {
		properties["demo"] = event.Flow
	}

	switch event.Type {
	case navatticStartFlow:
		return NavatticDemoStartedEvent, properties
	case navatticViewStep:
		if event.Step != "" {
			properties["step"] = event.Step
		}
		return NavatticDemoStepViewedEvent, properties
	case navatticCompleteFlow:
		return NavatticDemoCompletedEvent, properties
	}
	return "", nil
}

// navatticIdentity extracts the visitor identity from a structured
// property list. For each attribute a form-provided value wins over
// values captured from other sources.
func navatticIdentity(properties []navatticProperty) (string, *activity.Person, *activity.Company) {
	endUser := map[string]string{}
	account := map[string]string{}
	fromForm := map[string]bool{}

	for _, p := range properties {
		var attrs map[string]string
		switch p.Object {
		case navatticObjectEndUser:
			attrs = endUser
		case navatticObjectCompanyAccount:
			attrs = account
		default:
			continue
		}

		key := p.Object + "." + p.Name
		if _, seen := attrs[p.Name]; seen && fromForm[key] {
			continue
		}
		if p.Value == "" {
			continue
		}
		attrs[p.Name] = p.Value
		fromForm[key] = p.Source == navatticSourceForm
	}

	email := endUser["email"]
	if email == "" {
		return "", nil, nil
	}

	first, last := endUser["firstName"], endUser["lastName"]
	if first == "" && last == "" {
		first, last = splitFullName(endUser["fullName"])
	}
	person := &activity.Person{
		Email:       email,
		FirstName:   first,
		LastName:    last,
		MobilePhone: endUser["phone"],
	}

	var company *activity.Company
	if domain := activity.DomainForURL(account["companyDomain"]); domain != "" {
		company = &activity.Company{
			Domain:      domain,
			Name:        account["companyName"],
			Description: account["companyDescription"],
			Industry:    account["companyIndustry"],
			LinkedinURL: account["companyLinkedin"],
			Founded:     account["companyFoundedYear"],
		}
		if count, err := strconv.Atoi(account["companyEmployeeCount"]); err == nil {
			company.EmployeeCount = count
		}
	}

	return email, person, company
}

func splitFullName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	first, last, found := strings.Cut(full, " ")
	if !found {
		return full, ""
	}
	return first, strings.TrimSpace(last)
}
