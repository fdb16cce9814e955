package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/resolveiq/internal/domain"
	"github.com/spec-kit/resolveiq/internal/sla"
)

type deadlineReport struct {
	Priority      domain.TicketPriority `json:"priority"`
	CreatedAt     time.Time             `json:"created_at"`
	Mode          string                `json:"mode"`
	SLAHours      *int                  `json:"sla_hours,omitempty"`
	ResponseDue   *time.Time            `json:"response_due,omitempty"`
	ResolutionDue *time.Time            `json:"resolution_due,omitempty"`
	PolicyID      string                `json:"policy_id,omitempty"`
	PolicyMissing bool                  `json:"policy_missing"`
}

func (a *app) slaCommand() *cobra.Command {
	var (
		priority   string
		created    string
		typeID     string
		policyFile string
	)
	cmd := &cobra.Command{
		Use:   "sla",
		Short: "Compute the deadlines a ticket would get",
		Long: `Compute ticket deadlines.

Without --type-id the flat intake budget applies (P1 4h, P2 8h, P3 16h, P4 24h).
With --type-id and --policy-file the matching policy sets response and
resolution deadlines; a missing policy is reported, not an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := domain.TicketPriority(strings.ToUpper(strings.TrimSpace(priority)))
			if !p.Valid() {
				return fmt.Errorf("unknown priority %q: want P1..P4", priority)
			}
			createdAt := a.opts.Now().UTC()
			if created != "" {
				t, err := time.Parse(time.RFC3339, created)
				if err != nil {
					return fmt.Errorf("--created: %w", err)
				}
				createdAt = t.UTC()
			}

			report := deadlineReport{Priority: p, CreatedAt: createdAt}
			if typeID == "" {
				due, hours := sla.FlatDeadline(p, createdAt)
				report.Mode = "flat"
				report.SLAHours = &hours
				report.ResolutionDue = &due
				return a.printJSON(report)
			}

			if policyFile == "" {
				return fmt.Errorf("--policy-file is required with --type-id")
			}
			policies, err := sla.LoadPolicyFile(policyFile)
			if err != nil {
				return err
			}
			deadlines, err := sla.ComputeDeadlines(cmd.Context(), typeID, p, createdAt, policies)
			if err != nil {
				return err
			}
			report.Mode = "policy"
			report.ResponseDue = deadlines.ResponseDue
			report.ResolutionDue = deadlines.ResolutionDue
			report.PolicyID = deadlines.PolicyID
			report.PolicyMissing = deadlines.PolicyMissing
			return a.printJSON(report)
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "ticket priority (P1..P4)")
	cmd.Flags().StringVar(&created, "created", "", "creation time, RFC3339 (default now)")
	cmd.Flags().StringVar(&typeID, "type-id", "", "ticket type for policy lookup")
	cmd.Flags().StringVar(&policyFile, "policy-file", "", "YAML policy table")
	_ = cmd.MarkFlagRequired("priority")
	return cmd
}
