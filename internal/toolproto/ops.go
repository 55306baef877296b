package toolproto

import (
	"context"

	"github.com/spigell/job-pilot/internal/correlation"
	"github.com/spigell/job-pilot/internal/jobs"
	"github.com/spigell/job-pilot/internal/profile"
)

type initializeArgs struct {
	Client  string `json:"client"`
	Version string `json:"version"`
}

type searchArgs struct {
	Title     string `json:"job_title"`
	Location  string `json:"location"`
	EasyApply bool   `json:"easy_apply"`
	Limit     int    `json:"limit"`
	Cursor    string `json:"cursor,omitempty"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password,omitempty"`
}

// SearchPage is one page of search results. An empty NextCursor means the
// source has no further pages for this criterion.
type SearchPage struct {
	Postings   []*jobs.Posting `json:"postings"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type applyArgs struct {
	JobID         string           `json:"job_id"`
	Profile       *profile.Profile `json:"profile"`
	MonthlySalary int              `json:"monthly_salary,omitempty"`
	Email         string           `json:"email,omitempty"`
	Password      string           `json:"password,omitempty"`
}

// ApplyResult is the server's verdict for a single submission.
type ApplyResult struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Initialize performs the handshake exchange. It must complete before any
// other operation is issued.
func (c *Client) Initialize(ctx context.Context, corr correlation.Context, version string) error {
	args := initializeArgs{Client: "job-pilot", Version: version}
	return c.Call(ctx, corr, opInitialize, args, nil)
}

// SearchJobs fetches one page of postings for the given criterion. Easy-apply
// postings are always requested since nothing else can be submitted
// automatically.
func (c *Client) SearchJobs(ctx context.Context, corr correlation.Context, criteria jobs.Criteria, cursor string) (*SearchPage, error) {
	args := searchArgs{
		Title:     criteria.Title,
		Location:  criteria.Location,
		EasyApply: true,
		Limit:     criteria.Limit,
		Cursor:    cursor,
		Email:     c.creds.Email,
		Password:  c.creds.Password,
	}

	var page SearchPage
	if err := c.Call(ctx, corr, opSearchJobs, args, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// ApplyToJob submits one application through the tool server.
func (c *Client) ApplyToJob(ctx context.Context, corr correlation.Context, jobID string, p *profile.Profile, monthlySalary int) (*ApplyResult, error) {
	args := applyArgs{
		JobID:         jobID,
		Profile:       p,
		MonthlySalary: monthlySalary,
		Email:         c.creds.Email,
		Password:      c.creds.Password,
	}

	var result ApplyResult
	if err := c.Call(ctx, corr, opApplyToJob, args, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
