package service

import (
	"errors"

	"github.com/spec-kit/resolveiq/internal/domain"
	"github.com/spec-kit/resolveiq/internal/embedding"
	"github.com/spec-kit/resolveiq/internal/observability"
	"github.com/spec-kit/resolveiq/internal/scoring"
	apperrors "github.com/spec-kit/resolveiq/pkg/util/errorutil"
)

const (
	outageTitle = "Server is down, production impacted"
	outageDesc  = "cannot login, urgent"
	deptID      = "dept-1"
)

type harness struct {
	tickets  *fakeTickets
	depts    *fakeDepartments
	roster   *fakeRoster
	policies *fakePolicies
	analyses *fakeAnalyses
	events   *recordingDispatcher
	metrics  *observability.Metrics
	embedder *unitEmbedder

	assignSvc   *AssignmentService
	slaSvc      *SLAService
	analysisSvc *AnalysisService
	ticketSvc   *TicketService
}

type harnessOptions struct {
	fallback bool
	creation string
}

func newHarness(opts harnessOptions, seed ...domain.Ticket) *harness {
	h := &harness{
		tickets:  newFakeTickets(seed...),
		depts:    newFakeDepartments(domain.Department{ID: deptID, Name: "IT", IsActive: true}),
		roster:   newFakeRoster(),
		policies: newFakePolicies(),
		analyses: newFakeAnalyses(),
		events:   &recordingDispatcher{},
		metrics:  observability.NewMetrics(),
		embedder: &unitEmbedder{},
	}
	h.assignSvc = NewAssignmentService(AssignmentDependencies{
		TicketRepo: h.tickets,
		TeamRepo:   h.roster.teamRepo(),
		StaffRepo:  h.roster.staffRepo(),
		Dispatcher: h.events,
		Clock:      fixedClock,
	})
	h.slaSvc = NewSLAService(SLADependencies{
		TicketRepo: h.tickets,
		Policies:   h.policies,
		Workload:   h.assignSvc.AgentWorkload,
		Dispatcher: h.events,
		Metrics:    h.metrics,
		Clock:      fixedClock,
	})
	h.analysisSvc = NewAnalysisService(AnalysisDependencies{
		TicketRepo:       h.tickets,
		AnalysisRepo:     h.analyses,
		Full:             scoring.FullAnalysis{Analyzer: scoring.NewAnalyzer(h.embedder, 0)},
		SLA:              h.slaSvc,
		Dispatcher:       h.events,
		Metrics:          h.metrics,
		Clock:            fixedClock,
		FallbackToQuick:  opts.fallback,
		CreationStrategy: opts.creation,
	})
	h.ticketSvc = NewTicketService(TicketDependencies{
		TicketRepo:     h.tickets,
		DepartmentRepo: h.depts,
		Scorer:         h.analysisSvc,
		SLA:            h.slaSvc,
		Assignment:     h.assignSvc,
		Dispatcher:     h.events,
		Clock:          fixedClock,
	})
	return h
}

func errorCode(err error) string {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

var errBackendDown = embedding.Unavailable(errors.New("connection refused"))
