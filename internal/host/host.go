// Package host is the release host gateway: the hosting provider's status
// endpoint and its release publishing API.
//
// [Gateway] is the capability interface the orchestrator consumes. Responses
// are normalized at this boundary: status bodies of every supported shape are
// decoded by [DecodeStatus], and publish outcomes are reported as typed
// [PublishResult] values so that callers can tell a transport failure (an
// error return) from a semantic rejection (a result with [StateRejected]).
package host

import (
	"context"
	"strings"
)

// StatusGood is the only service status that lets a release proceed.
const StatusGood = "good"

// ServiceStatus is the normalized status endpoint response.
type ServiceStatus struct {
	Status      string
	Description string
}

// IsGood reports whether the service is fully operational.
func (s ServiceStatus) IsGood() bool {
	return s.Status == StatusGood
}

// PublishState is the outcome of publishing one release.
type PublishState string

// Publish states.
const (
	StateFulfilled PublishState = "fulfilled"
	StateRejected  PublishState = "rejected"
)

// ReleaseDraft describes one release to publish.
type ReleaseDraft struct {
	Tag        string
	Name       string
	Body       string
	Prerelease bool
}

// PublishConfig is the input of [Gateway.PublishRelease].
type PublishConfig struct {
	// Token authenticates against the hosting API.
	Token string

	// Drafts are published in order.
	Drafts []ReleaseDraft
}

// Rejection is one reason the hosting API gave for refusing a release.
type Rejection struct {
	Message string
}

// PublishResult is the outcome of one draft.
type PublishResult struct {
	Tag     string
	State   PublishState
	URL     string
	Reasons []Rejection
}

// Rejected reports whether the host refused the release.
func (r PublishResult) Rejected() bool {
	return r.State == StateRejected
}

// ReasonText joins every rejection message.
func (r PublishResult) ReasonText() string {
	msgs := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		msgs[i] = reason.Message
	}
	return strings.Join(msgs, "; ")
}

// Gateway is the hosting provider capability.
type Gateway interface {
	// CheckServiceStatus queries the provider's status endpoint.
	CheckServiceStatus(ctx context.Context) (ServiceStatus, error)

	// PublishRelease publishes every draft. A returned error means the
	// transport failed; refusals are reported per result.
	PublishRelease(ctx context.Context, cfg PublishConfig) ([]PublishResult, error)
}
