package handler

import (
	"github.com/loanpro/lending-system/internal/core/domain"
	"github.com/loanpro/lending-system/internal/core/ports"
)

func linksFor(applicationID string) applicationLinks {
	return applicationLinks{
		Self:  "/v1/applications/" + applicationID,
		Audit: "/v1/applications/" + applicationID + "/audit",
	}
}

func toScoreResponse(v ports.ScoreView) scoreResponse {
	return scoreResponse{
		AgeScore:          v.AgeScore,
		IncomeScore:       v.IncomeScore,
		EmploymentScore:   v.EmploymentScore,
		LoanToIncomeScore: v.LoanToIncomeScore,
		TotalScore:        v.TotalScore,
		Percentage:        v.Percentage.StringFixed(2),
		Tier:              v.Tier,
	}
}

func toSubmitResponse(r *ports.SubmitResult) submitApplicationResponse {
	return submitApplicationResponse{
		ApplicationID: r.ApplicationID,
		Status:        r.Status,
		Score:         toScoreResponse(r.Score),
		CreatedAt:     r.CreatedAt,
		Links:         linksFor(r.ApplicationID),
	}
}

func toDetailResponse(d *ports.ApplicationDetail) applicationDetailResponse {
	resp := applicationDetailResponse{
		ApplicationID: d.ApplicationID,
		Status:        d.Status,
		Applicant: applicantResponse{
			FirstName:    d.Applicant.FirstName,
			LastName:     d.Applicant.LastName,
			Email:        d.Applicant.Email,
			Phone:        d.Applicant.Phone,
			Employment:   d.Applicant.Employment,
			AnnualIncome: d.Applicant.AnnualIncome.StringFixed(2),
			LoanAmount:   d.Applicant.LoanAmount.StringFixed(2),
			LoanPurpose:  d.Applicant.LoanPurpose,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Links:     linksFor(d.ApplicationID),
	}
	if d.Score != nil {
		score := toScoreResponse(*d.Score)
		resp.Score = &score
	}
	return resp
}

func toTransitionResponse(r *ports.TransitionResult) transitionResponse {
	return transitionResponse{
		ApplicationID:  r.ApplicationID,
		PreviousStatus: r.PreviousStatus,
		NewStatus:      r.NewStatus,
		NoOp:           r.NoOp,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toAuditResponse(entries []domain.AuditLogEntry) []auditEntryResponse {
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			Sequence:  e.Sequence,
			Action:    string(e.Action),
			Detail:    e.Detail,
			Actor:     e.Actor,
			Timestamp: e.Timestamp,
		})
	}
	return out
}

func toListResponse(r *ports.ListApplicationsResult) listApplicationsResponse {
	items := make([]applicationSummaryResponse, 0, len(r.Items))
	for _, s := range r.Items {
		item := applicationSummaryResponse{
			ApplicationID: s.ApplicationID,
			ApplicantName: s.ApplicantName,
			Email:         s.Email,
			Status:        s.Status,
			LoanAmount:    s.LoanAmount.StringFixed(2),
			Tier:          s.Tier,
			CreatedAt:     s.CreatedAt,
		}
		if s.Tier != "" {
			item.Percentage = s.Percentage.StringFixed(2)
		}
		items = append(items, item)
	}
	return listApplicationsResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}

func toStatsResponse(s *ports.DashboardStats) statsResponse {
	monthly := make([]monthlyCountResponse, 0, len(s.Monthly))
	for _, m := range s.Monthly {
		monthly = append(monthly, monthlyCountResponse{Month: m.Month, Count: m.Count})
	}
	return statsResponse{
		Counts: statusCountsResponse{
			Total:       s.Counts.Total,
			Pending:     s.Counts.Pending,
			UnderReview: s.Counts.UnderReview,
			Approved:    s.Counts.Approved,
			Rejected:    s.Counts.Rejected,
		},
		Monthly: monthly,
	}
}
