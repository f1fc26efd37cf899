package handler

import (
	"time"

	"github.com/htsuda/otameshi/internal/model"
)

// このファイルはAPIレスポンスのDTOとモデルからの変換を定義する。
// 内部モデルをそのままシリアライズせず、公開するフィールドを明示する。

// campaignResponse はキャンペーン情報のAPIレスポンス。
type campaignResponse struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	CompanyName   string    `json:"company_name"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	Status        string    `json:"status"`
	EntryCount    int       `json:"entry_count"`
	WinnerCount   int       `json:"winner_count"`
	AverageRating float64   `json:"average_rating"`
	CreatedAt     time.Time `json:"created_at"`
}

// campaignDetailResponse はキャンペーン詳細のAPIレスポンス。
// 閲覧者の応募可否を含む。
type campaignDetailResponse struct {
	campaignResponse
	CanApply bool `json:"can_apply"`
}

func newCampaignResponse(c *model.CampaignWithStats) campaignResponse {
	return campaignResponse{
		ID:            c.ID,
		CompanyID:     c.CompanyID,
		CompanyName:   c.CompanyName,
		Title:         c.Title,
		Description:   c.Description,
		ImageURL:      c.ImageURL,
		StartAt:       c.StartAt,
		EndAt:         c.EndAt,
		Status:        string(c.Status),
		EntryCount:    c.EntryCount,
		WinnerCount:   c.WinnerCount,
		AverageRating: c.AverageRating,
		CreatedAt:     c.CreatedAt,
	}
}

func newCampaignResponses(campaigns []model.CampaignWithStats) []campaignResponse {
	res := make([]campaignResponse, 0, len(campaigns))
	for i := range campaigns {
		res = append(res, newCampaignResponse(&campaigns[i]))
	}
	return res
}

// entryResponse は応募情報のAPIレスポンス。
type entryResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	CampaignID       string    `json:"campaign_id"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UserName         string    `json:"user_name,omitempty"`
	UserEmail        string    `json:"user_email,omitempty"`
	CampaignTitle    string    `json:"campaign_title,omitempty"`
	CampaignImageURL string    `json:"campaign_image_url,omitempty"`
}

func newEntryResponse(e *model.Entry) entryResponse {
	return entryResponse{
		ID:         e.ID,
		UserID:     e.UserID,
		CampaignID: e.CampaignID,
		Status:     string(e.Status),
		CreatedAt:  e.CreatedAt,
	}
}

func newEntryWithRefsResponse(e *model.EntryWithRefs) entryResponse {
	res := newEntryResponse(&e.Entry)
	res.UserName = e.UserName
	res.UserEmail = e.UserEmail
	res.CampaignTitle = e.CampaignTitle
	res.CampaignImageURL = e.CampaignImageURL
	return res
}

func newEntryResponses(entries []model.EntryWithRefs) []entryResponse {
	res := make([]entryResponse, 0, len(entries))
	for i := range entries {
		res = append(res, newEntryWithRefsResponse(&entries[i]))
	}
	return res
}

// reviewResponse はレビュー情報のAPIレスポンス。
type reviewResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	CampaignID       string    `json:"campaign_id"`
	Rating           int       `json:"rating"`
	RatingText       string    `json:"rating_text"`
	Comment          string    `json:"comment"`
	CreatedAt        time.Time `json:"created_at"`
	UserName         string    `json:"user_name,omitempty"`
	CampaignTitle    string    `json:"campaign_title,omitempty"`
	CampaignImageURL string    `json:"campaign_image_url,omitempty"`
	CompanyName      string    `json:"company_name,omitempty"`
}

func newReviewResponse(rv *model.Review) reviewResponse {
	return reviewResponse{
		ID:         rv.ID,
		UserID:     rv.UserID,
		CampaignID: rv.CampaignID,
		Rating:     rv.Rating,
		RatingText: rv.RatingText(),
		Comment:    rv.Comment,
		CreatedAt:  rv.CreatedAt,
	}
}

func newReviewWithRefsResponse(rv *model.ReviewWithRefs) reviewResponse {
	res := newReviewResponse(&rv.Review)
	res.UserName = rv.UserName
	res.CampaignTitle = rv.CampaignTitle
	res.CampaignImageURL = rv.CampaignImageURL
	res.CompanyName = rv.CompanyName
	return res
}

func newReviewResponses(reviews []model.ReviewWithRefs) []reviewResponse {
	res := make([]reviewResponse, 0, len(reviews))
	for i := range reviews {
		res = append(res, newReviewWithRefsResponse(&reviews[i]))
	}
	return res
}

// addressResponse は配送先住所のAPIレスポンス。
type addressResponse struct {
	ID         string    `json:"id"`
	PostalCode string    `json:"postal_code"`
	Prefecture string    `json:"prefecture"`
	City       string    `json:"city"`
	Address1   string    `json:"address1"`
	Address2   string    `json:"address2"`
	Phone      string    `json:"phone"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
}

func newAddressResponse(a *model.Address) addressResponse {
	return addressResponse{
		ID:         a.ID,
		PostalCode: a.PostalCode,
		Prefecture: a.Prefecture,
		City:       a.City,
		Address1:   a.Address1,
		Address2:   a.Address2,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt,
	}
}

func newAddressResponses(addresses []*model.Address) []addressResponse {
	res := make([]addressResponse, 0, len(addresses))
	for _, a := range addresses {
		res = append(res, newAddressResponse(a))
	}
	return res
}

// shipmentResponse は配送情報のAPIレスポンス。
type shipmentResponse struct {
	ID            string           `json:"id"`
	EntryID       string           `json:"entry_id"`
	AddressID     string           `json:"address_id"`
	Status        string           `json:"status"`
	ShippedAt     *time.Time       `json:"shipped_at"`
	TrackingInfo  string           `json:"tracking_info"`
	CreatedAt     time.Time        `json:"created_at"`
	EntryStatus   string           `json:"entry_status"`
	UserEmail     string           `json:"user_email"`
	CampaignTitle string           `json:"campaign_title"`
	Address       *addressResponse `json:"address,omitempty"`
}

func newShipmentResponse(s *model.ShipmentWithRefs) shipmentResponse {
	addr := newAddressResponse(&s.Address)
	return shipmentResponse{
		ID:            s.ID,
		EntryID:       s.EntryID,
		AddressID:     s.AddressID,
		Status:        string(s.Status),
		ShippedAt:     s.ShippedAt,
		TrackingInfo:  s.TrackingInfo(),
		CreatedAt:     s.CreatedAt,
		EntryStatus:   string(s.EntryStatus),
		UserEmail:     s.UserEmail,
		CampaignTitle: s.CampaignTitle,
		Address:       &addr,
	}
}

func newShipmentResponses(shipments []model.ShipmentWithRefs) []shipmentResponse {
	res := make([]shipmentResponse, 0, len(shipments))
	for i := range shipments {
		res = append(res, newShipmentResponse(&shipments[i]))
	}
	return res
}

// companyResponse は企業情報のAPIレスポンス。
type companyResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	ContactName  string               `json:"contact_name"`
	ContactPhone string               `json:"contact_phone"`
	PostalCode   string               `json:"postal_code"`
	Prefecture   string               `json:"prefecture"`
	City         string               `json:"city"`
	Address1     string               `json:"address1"`
	Address2     string               `json:"address2"`
	URL          string               `json:"url"`
	CreatedAt    time.Time            `json:"created_at"`
	SnsLinks     []companySnsResponse `json:"sns_links,omitempty"`
}

// companySnsResponse は企業SNSリンクのAPIレスポンス。
type companySnsResponse struct {
	ID      string `json:"id"`
	SnsType string `json:"sns_type"`
	SnsURL  string `json:"sns_url"`
}

func newCompanyResponse(c *model.Company, snsLinks []*model.CompanySns) companyResponse {
	res := companyResponse{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		ContactName:  c.ContactName,
		ContactPhone: c.ContactPhone,
		PostalCode:   c.PostalCode,
		Prefecture:   c.Prefecture,
		City:         c.City,
		Address1:     c.Address1,
		Address2:     c.Address2,
		URL:          c.URL,
		CreatedAt:    c.CreatedAt,
	}
	for _, sns := range snsLinks {
		res.SnsLinks = append(res.SnsLinks, companySnsResponse{
			ID:      sns.ID,
			SnsType: string(sns.SnsType),
			SnsURL:  sns.SnsURL,
		})
	}
	return res
}

func newCompanyResponses(companies []*model.Company) []companyResponse {
	res := make([]companyResponse, 0, len(companies))
	for _, c := range companies {
		res = append(res, newCompanyResponse(c, nil))
	}
	return res
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}
