// Package entity holds the wire payloads sent to the helpdesk API. Optional
// fields are pointers or nil-able collections tagged omitempty, so unset
// fields never appear as null in a request body.
package entity

import "errors"

// ErrInvalidTimeFormat is returned when TimeFormat is neither 12h nor 24h.
var ErrInvalidTimeFormat = errors.New("time_format must be either '12h' or '24h'")

// Requester is a helpdesk end user.
type Requester struct {
	FirstName                                 *string                `json:"first_name,omitempty"`
	LastName                                  *string                `json:"last_name,omitempty"`
	JobTitle                                  *string                `json:"job_title,omitempty"`
	PrimaryEmail                              *string                `json:"primary_email,omitempty"`
	SecondaryEmails                           []string               `json:"secondary_emails,omitempty"`
	WorkPhoneNumber                           *int64                 `json:"work_phone_number,omitempty"`
	MobilePhoneNumber                         *int64                 `json:"mobile_phone_number,omitempty"`
	DepartmentIDs                             []int64                `json:"department_ids,omitempty"`
	CanSeeAllTicketsFromAssociatedDepartments *bool                  `json:"can_see_all_tickets_from_associated_departments,omitempty"`
	ReportingManagerID                        *int64                 `json:"reporting_manager_id,omitempty"`
	Address                                   *string                `json:"address,omitempty"`
	TimeZone                                  *string                `json:"time_zone,omitempty"`
	TimeFormat                                *string                `json:"time_format,omitempty"`
	Language                                  *string                `json:"language,omitempty"`
	LocationID                                *int64                 `json:"location_id,omitempty"`
	BackgroundInformation                     *string                `json:"background_information,omitempty"`
	CustomFields                              map[string]interface{} `json:"custom_fields,omitempty"`
}

// NewRequester returns a requester with the minimal fields the API needs.
func NewRequester(firstName, primaryEmail string) *Requester {
	return &Requester{
		FirstName:    String(firstName),
		PrimaryEmail: String(primaryEmail),
	}
}

// Validate checks field-level constraints.
func (r *Requester) Validate() error {
	if r.TimeFormat != nil && *r.TimeFormat != "12h" && *r.TimeFormat != "24h" {
		return ErrInvalidTimeFormat
	}
	return nil
}

// Department is a helpdesk department.
type Department struct {
	Name         string            `json:"name"`
	Description  *string           `json:"description,omitempty"`
	HeadUserID   *int64            `json:"head_user_id,omitempty"`
	PrimeUserID  *int64            `json:"prime_user_id,omitempty"`
	Domains      []string          `json:"domains,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Int64 returns a pointer to n.
func Int64(n int64) *int64 { return &n }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
