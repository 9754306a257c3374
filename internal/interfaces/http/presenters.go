package http

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/saas-dashboard/internal/application/dto"
	"github.com/jhoicas/saas-dashboard/internal/application/sso"
	domainaccess "github.com/jhoicas/saas-dashboard/internal/domain/access"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

func toAppResponse(a *entity.App) dto.AppResponse {
	return dto.AppResponse{
		ID:               a.ID,
		Slug:             a.Slug,
		Name:             a.Name,
		Description:      a.Description,
		LongDescription:  a.LongDescription,
		SSOURL:           a.SSOURL,
		Status:           a.Status,
		RequiresPlan:     a.RequiresPlan,
		MinimumPlanLevel: a.MinimumPlanLevel,
		Category:         a.Category,
		Tags:             nonNilStrings(a.Tags),
		Features:         nonNilStrings(a.Features),
		Popularity:       a.Popularity,
		Rating:           a.Rating,
		IsPopular:        a.IsPopular,
		IsFeatured:       a.IsFeatured,
		IconURL:          a.IconURL,
		HasAPIKey:        a.APIKeyHash != "",
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toAccessResponse(d domainaccess.Decision) *dto.AccessResponse {
	out := &dto.AccessResponse{HasAccess: d.Granted(), AccessReason: string(d.Reason())}
	switch v := d.(type) {
	case domainaccess.IncludedInPlan:
		out.UserPlanLevel = intPtr(v.UserPlanLevel)
	case domainaccess.PlanLevelAccess:
		out.UserPlanLevel = intPtr(v.UserPlanLevel)
		out.RequiredPlanLevel = intPtr(v.RequiredPlanLevel)
	case domainaccess.UpgradeRequired:
		out.UserPlanLevel = intPtr(v.UserPlanLevel)
		out.RequiredPlanLevel = intPtr(v.RequiredPlanLevel)
		out.UpgradeURL = v.UpgradeURL
	case domainaccess.SubscriptionExpired:
		out.UpgradeURL = v.UpgradeURL
	}
	return out
}

func toPlanResponse(p *entity.SubscriptionPlan) *dto.PlanResponse {
	if p == nil {
		return nil
	}
	return &dto.PlanResponse{
		ID:                p.ID,
		Slug:              p.Slug,
		Name:              p.Name,
		Description:       p.Description,
		Position:          p.Position,
		PriceMonthlyCents: p.PriceMonthly,
		PriceYearlyCents:  p.PriceYearly,
		PriceMonthly:      decimal.NewFromInt(p.PriceMonthly).Div(hundred),
		PriceYearly:       decimal.NewFromInt(p.PriceYearly).Div(hundred),
		MaxUsers:          p.MaxUsers,
		StorageQuotaGB:    p.StorageQuotaGB,
		Features:          nonNilStrings(p.Features),
	}
}

func toSubscriptionResponse(s *entity.UserSubscription) *dto.SubscriptionResponse {
	if s == nil {
		return nil
	}
	return &dto.SubscriptionResponse{
		ID:          s.ID,
		PlanID:      s.PlanID,
		Status:      s.Status,
		StartDate:   s.StartDate,
		ExpiresAt:   s.ExpiresAt,
		CancelledAt: s.CancelledAt,
		TrialEndsAt: s.TrialEndsAt,
		IsYearly:    s.IsYearly,
		Plan:        toPlanResponse(s.Plan),
	}
}

func toSiteResponse(s *entity.ERPSite, created bool) dto.SiteResponse {
	return dto.SiteResponse{
		Username:      s.Username,
		SiteURL:       s.SiteURL,
		AdminPassword: s.AdminPassword,
		Status:        s.Status,
		Created:       created,
		CreatedAt:     s.CreatedAt,
	}
}

func toUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Role:               u.Role,
		CurrentPlanID:      u.CurrentPlanID,
		SubscriptionStatus: u.SubscriptionStatus,
		CreatedAt:          u.CreatedAt,
	}
}

func toSSOPayload(p *sso.Payload) *dto.SSOPayload {
	if p == nil {
		return nil
	}
	return &dto.SSOPayload{
		UserID:      p.UserID,
		Email:       p.Email,
		Name:        p.Name,
		Role:        p.Role,
		TargetApp:   p.TargetApp,
		Permissions: nonNilStrings(p.Permissions),
		IssuedAt:    p.IssuedAt,
		ExpiresAt:   p.ExpiresAt,
		Nonce:       p.Nonce,
	}
}

func intPtr(n int) *int { return &n }

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
