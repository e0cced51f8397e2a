package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mansap-dev/mansap/internal/auth"
	"github.com/mansap-dev/mansap/internal/forms"
)

// NewApplyCmd creates the apply command
func NewApplyCmd(opts ...Option) *cobra.Command {
	var coverLetter, coverLetterFile string
	e := newEnv(opts)

	cmd := &cobra.Command{
		Use:   "apply <job-id>",
		Short: "Apply to a job posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := strconv.Atoi(args[0])
			if err != nil || jobID <= 0 {
				return fmt.Errorf("invalid job id %q", args[0])
			}

			if coverLetterFile != "" {
				data, err := os.ReadFile(coverLetterFile)
				if err != nil {
					return fmt.Errorf("failed to read cover letter: %w", err)
				}
				coverLetter = strings.TrimSpace(string(data))
			}

			return runApply(cmd, e, jobID, coverLetter)
		},
	}

	cmd.Flags().StringVar(&coverLetter, "cover-letter", "", "Cover letter text (will prompt if not provided)")
	cmd.Flags().StringVar(&coverLetterFile, "cover-letter-file", "", "Read the cover letter from a file")

	return cmd
}

func runApply(cmd *cobra.Command, e *env, jobID int, coverLetter string) error {
	api, store, err := e.open(cmd)
	if err != nil {
		return err
	}
	if err := requireLogin(store); err != nil {
		return err
	}

	if coverLetter == "" {
		if coverLetter, err = e.promptText("Cover letter", "", false); err != nil {
			return err
		}
	}

	form := forms.NewApplyForm(api, store, jobID, func() {
		fmt.Fprintf(e.out, "✓ Applied to job %d\n", jobID)
	}, e.log())
	form.SetValues(forms.ApplyValues{CoverLetter: coverLetter})

	err = form.Submit(cmd.Context())
	if errors.Is(err, auth.ErrPreconditionFailed) {
		return fmt.Errorf("you need to upload a resume to your profile before applying")
	}
	if err != nil {
		return describeError("application", err)
	}

	return nil
}
