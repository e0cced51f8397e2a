package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mansap-dev/mansap/internal/client"
)

// NewJobsCmd creates the jobs command
func NewJobsCmd(opts ...Option) *cobra.Command {
	var output string
	e := newEnv(opts)

	cmd := &cobra.Command{
		Use:     "jobs [job-id]",
		Aliases: []string{"ls"},
		Short:   "List job postings, or show one",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, store, err := e.open(cmd)
			if err != nil {
				return err
			}
			token, _ := store.BearerToken()

			if len(args) == 1 {
				jobID, err := strconv.Atoi(args[0])
				if err != nil || jobID <= 0 {
					return fmt.Errorf("invalid job id %q", args[0])
				}
				job, err := api.GetJob(cmd.Context(), token, jobID)
				if err != nil {
					return fmt.Errorf("failed to load job: %w", err)
				}
				return render(e.out, output, job, func(w io.Writer) error {
					return printJob(w, job)
				})
			}

			jobs, err := api.ListJobs(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}
			return render(e.out, output, jobs, func(w io.Writer) error {
				return printJobs(w, jobs)
			})
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}

func printJobs(out io.Writer, jobs []client.Job) error {
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLOCATION\tTYPE\tSALARY\tAPPLIED")
	fmt.Fprintln(w, "──\t────\t────────\t────\t──────\t───────")

	for _, job := range jobs {
		applied := ""
		if job.Applied {
			applied = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			job.ID,
			job.Name,
			job.Location.Name,
			job.JobType,
			formatSalary(job),
			applied,
		)
	}

	return w.Flush()
}

func printJob(w io.Writer, job *client.Job) error {
	fmt.Fprintf(w, "%s (#%d)\n", job.Name, job.ID)
	fmt.Fprintf(w, "  Location:   %s\n", job.Location.Name)
	fmt.Fprintf(w, "  Type:       %s\n", job.JobType)
	fmt.Fprintf(w, "  Experience: %s\n", job.ExperienceLevel)
	fmt.Fprintf(w, "  Salary:     %s\n", formatSalary(*job))
	if job.Applied {
		fmt.Fprintln(w, "  Applied:    yes")
	}
	if job.Description != "" {
		fmt.Fprintf(w, "\n%s\n", job.Description)
	}
	return nil
}

func formatSalary(job client.Job) string {
	salary := strconv.FormatFloat(job.Salary, 'f', -1, 64)
	if job.Unit == "" {
		return salary
	}
	return salary + "/" + job.Unit
}

// NewLocationsCmd creates the locations command
func NewLocationsCmd(opts ...Option) *cobra.Command {
	var output string
	e := newEnv(opts)

	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List job locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := e.open(cmd)
			if err != nil {
				return err
			}

			locations, err := api.ListLocations(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list locations: %w", err)
			}

			return render(e.out, output, locations, func(out io.Writer) error {
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME")
				for _, loc := range locations {
					fmt.Fprintf(w, "%d\t%s\n", loc.ID, loc.Name)
				}
				return w.Flush()
			})
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}
