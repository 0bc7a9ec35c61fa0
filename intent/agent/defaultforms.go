package agent

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/unifygtm/intent-go/intent/activity"
)

// Origins of the Default form and scheduler widgets. Messages from any
// other origin are never interpreted as widget events.
const (
	DefaultFormsOrigin     = "https://forms.default.com"
	DefaultSchedulerOrigin = "https://scheduler.default.com"
)

// defaultEventType is the wire-level type field of a Default widget
// message.
type defaultEventType string

const (
	defaultFormCompleted       defaultEventType = "default.form_completed"
	defaultFormPageSubmitted   defaultEventType = "default.form_page_submitted"
	defaultFormPageSubmittedV2 defaultEventType = "default.form_page_submitted_v2"
	defaultMeetingBooked       defaultEventType = "default.meeting_booked"
	defaultSchedulerClosed     defaultEventType = "default.scheduler_closed"
	defaultSchedulerDisplayed  defaultEventType = "default.scheduler_displayed"
)

// Track event names produced for Default widget events. These are the
// names an EventFilter for the DefaultForms integration selects on.
const (
	DefaultFormCompletedEvent      = "Default Form Completed"
	DefaultFormPageSubmittedEvent  = "Default Form Page Submitted"
	DefaultMeetingBookedEvent      = "Default Meeting Booked"
	DefaultSchedulerClosedEvent    = "Default Scheduler Closed"
	DefaultSchedulerDisplayedEvent = "Default Scheduler Displayed"
)

// defaultEventSuppression is how long after an emitted Default track
// event further tracks of the same logical kind are dropped. The widget
// emits some events twice over two different message channels within a
// few milliseconds.
const defaultEventSuppression = 500 * time.Millisecond

// defaultMessage is the payload of a Default widget message. The widget
// is loose about scalar types, so identifier fields are typed any and
// coerced on use.
type defaultMessage struct {
	Type       defaultEventType `json:"type"`
	FormID     any              `json:"formId"`
	PageNumber any              `json:"pageNumber"`
	Lead       map[string]any   `json:"lead"`
}

func (a *Agent) handleDefaultMessageLocked(msg Message) {
	var event defaultMessage
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		a.log.Debug("ignoring malformed widget message", "origin", msg.Origin)
		return
	}
	if event.Type == "" {
		return
	}

	// Identify is never gated by the suppression window; the submitted
	// set already dedupes, and a duplicate-channel message may be the
	// one carrying the lead.
	switch event.Type {
	case defaultFormCompleted, defaultFormPageSubmitted, defaultFormPageSubmittedV2:
		email, person, company := defaultLeadIdentity(event.Lead)
		a.maybeIdentifyEmailLocked(email, person, company)
	}

	name, properties := defaultTrackEvent(event)
	if name == "" || !a.trackOptions.DefaultForms.Enabled(name) {
		return
	}

	kind := canonicalDefaultKind(event.Type)
	now := a.now()
	if last, ok := a.lastDefaultEvent[kind]; ok && now.Sub(last) < defaultEventSuppression {
		return
	}
	a.lastDefaultEvent[kind] = now

	activity.Send(a.ctx, activity.Track{Name: name, Properties: properties})
}

// canonicalDefaultKind folds the duplicate page-submitted channels into
// one kind so the suppression window covers both.
func canonicalDefaultKind(t defaultEventType) defaultEventType {
	if t == defaultFormPageSubmittedV2 {
		return defaultFormPageSubmitted
	}
	return t
}

func defaultTrackEvent(event defaultMessage) (string, map[string]any) {
	properties := map[string]any{}
	if event.FormID != nil {
		properties["formId"] = scalarString(event.FormID)
	}
	if event.PageNumber != nil {
		properties["pageNumber"] = event.PageNumber
	}

	switch event.Type {
	case defaultFormCompleted:
		return DefaultFormCompletedEvent, properties
	case defaultFormPageSubmitted, defaultFormPageSubmittedV2:
		return DefaultFormPageSubmittedEvent, properties
	case defaultMeetingBooked:
		return DefaultMeetingBookedEvent, properties
	case defaultSchedulerClosed:
		return DefaultSchedulerClosedEvent, properties
	case defaultSchedulerDisplayed:
		return DefaultSchedulerDisplayedEvent, properties
	}
	return "", nil
}

// defaultLeadIdentity extracts the visitor identity a lead payload
// carries. The company is populated only when the payload names a
// company website it resolves to a domain.
func defaultLeadIdentity(lead map[string]any) (string, *activity.Person, *activity.Company) {
	if len(lead) == 0 {
		return "", nil, nil
	}

	field := func(key string) string {
		v, _ := lead[key].(string)
		return v
	}

	email := field("email")
	if email == "" {
		return "", nil, nil
	}

	person := &activity.Person{
		Email:       email,
		FirstName:   field("first_name"),
		LastName:    field("last_name"),
		MobilePhone: field("phone"),
		Title:       field("title"),
	}

	var company *activity.Company
	if domain := activity.DomainForURL(field("website")); domain != "" {
		company = &activity.Company{
			Domain:      domain,
			Name:        field("company_name"),
			Industry:    field("industry"),
			LinkedinURL: field("linkedin_url"),
		}
		if count, ok := leadHeadCount(lead["head_count"]); ok {
			company.EmployeeCount = count
		}
	}

	return email, person, company
}

func leadHeadCount(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		count, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return count, true
	}
	return 0, false
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}
