package forms

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mansap-dev/mansap/internal/auth"
	"github.com/mansap-dev/mansap/internal/client"
)

const noResumeMessage = "no resume"

// JobsAPI is the part of the API client the apply form uses.
type JobsAPI interface {
	ResumeStatus(ctx context.Context, token string) (*client.ResumeStatus, error)
	ApplyToJob(ctx context.Context, token string, req client.ApplicationRequest) error
	Invalidate(keys ...string)
}

// TokenSource hands out the bearer token of the current session.
type TokenSource interface {
	BearerToken() (string, bool)
}

type ApplyValues struct {
	CoverLetter string `json:"coverLetter" validate:"required,min=10,max=1000"`
}

// NewApplyForm returns a form that applies to jobID. Before posting it checks
// that the applicant has a resume; without one it fails with
// PreconditionFailed and posts nothing. After a successful post the cached
// job listing and job detail are invalidated, then onSuccess runs.
func NewApplyForm(api JobsAPI, tokens TokenSource, jobID int, onSuccess func(), logger zerolog.Logger) *Form[ApplyValues] {
	return New(Config[ApplyValues]{
		Submit: func(ctx context.Context, v ApplyValues) error {
			token, ok := tokens.BearerToken()
			if !ok {
				return auth.Unauthorized("no token")
			}

			status, err := api.ResumeStatus(ctx, token)
			if err != nil {
				return remoteError(err)
			}
			if strings.EqualFold(strings.TrimSpace(status.Message), noResumeMessage) {
				logger.Debug().Int("job_id", jobID).Msg("Application blocked: no resume")
				return auth.PreconditionFailed(noResumeMessage)
			}

			err = api.ApplyToJob(ctx, token, client.ApplicationRequest{
				CoverLetter: v.CoverLetter,
				JobID:       jobID,
			})
			if err != nil {
				return remoteError(err)
			}

			api.Invalidate(client.JobsKey, client.JobKey(jobID))
			logger.Info().Int("job_id", jobID).Msg("Application submitted")
			return nil
		},
		OnSuccess:      onSuccess,
		ResetOnSuccess: true,
		Logger:         logger,
	})
}

func remoteError(err error) error {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &auth.AuthError{Kind: auth.ErrUnauthorized, Err: err}
		}
	}
	return auth.Transport(err)
}
