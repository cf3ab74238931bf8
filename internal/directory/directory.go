// Package directory looks up member records in the fraternal directory so
// the wizard can prefill rank and lodge details for known members.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"cornerstone/pkg/platform/sentinel"
)

// Member is a directory record for a registered member.
type Member struct {
	MemberNumber string `json:"member_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Rank         string `json:"rank"`
	GrandRank    string `json:"grand_rank,omitempty"`
	GrandOfficer bool   `json:"grand_officer"`
	LodgeID      string `json:"lodge_id"`
	LodgeName    string `json:"lodge_name"`
}

// Lookup finds members by their membership number.
type Lookup interface {
	FindMember(ctx context.Context, memberNumber string) (Member, error)
}

// HTTPLookup queries the directory API.
type HTTPLookup struct {
	baseURL string
	client  *http.Client
}

func NewHTTPLookup(baseURL string) *HTTPLookup {
	return &HTTPLookup{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (l *HTTPLookup) FindMember(ctx context.Context, memberNumber string) (Member, error) {
	endpoint := fmt.Sprintf("%s/members/%s", l.baseURL, url.PathEscape(memberNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Member{}, fmt.Errorf("build directory request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return Member{}, fmt.Errorf("query directory: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Member{}, sentinel.ErrNotFound
	default:
		return Member{}, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var member Member
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		return Member{}, fmt.Errorf("decode directory response: %w", err)
	}
	return member, nil
}
