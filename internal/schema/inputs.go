package schema

import "encoding/json"

type BookingInput struct {
	CustomerName  string  `json:"customer_name" validate:"required,min=2,max=100"`
	CustomerEmail string  `json:"customer_email" validate:"required,email,max=255"`
	CustomerPhone *string `json:"customer_phone" validate:"omitempty,phone"`
	DestinationID string  `json:"destination_id" validate:"required,uuid"`
	GuideID       *string `json:"guide_id" validate:"omitempty,uuid"`
	StartDate     string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	Travelers     int     `json:"travelers" validate:"required,min=1,max=50"`
	Amount        float64 `json:"amount" validate:"gte=0"`
	Status        *string `json:"status" validate:"omitempty,bookingstatus"`
	Notes         *string `json:"notes" validate:"omitempty,max=1000"`
}

type BookingUpdate struct {
	CustomerName  *string  `json:"customer_name" validate:"omitempty,min=2,max=100"`
	CustomerEmail *string  `json:"customer_email" validate:"omitempty,email,max=255"`
	CustomerPhone *string  `json:"customer_phone" validate:"omitempty,phone"`
	DestinationID *string  `json:"destination_id" validate:"omitempty,uuid"`
	GuideID       *string  `json:"guide_id" validate:"omitempty,uuid"`
	ClearGuide    *bool    `json:"clear_guide" validate:"omitempty,excluded_with=GuideID"` // true unassigns the guide
	StartDate     *string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate       *string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Travelers     *int     `json:"travelers" validate:"omitempty,min=1,max=50"`
	Amount        *float64 `json:"amount" validate:"omitempty,gte=0"`
	Status        *string  `json:"status" validate:"omitempty,bookingstatus"`
	Notes         *string  `json:"notes" validate:"omitempty,max=1000"`
}

type DestinationInput struct {
	Name         string   `json:"name" validate:"required,min=2,max=120"`
	Slug         string   `json:"slug" validate:"omitempty,slug,max=140"`
	Country      string   `json:"country" validate:"required,min=2,max=80"`
	Description  string   `json:"description" validate:"required,min=10,max=5000"`
	ImageURL     *string  `json:"image_url" validate:"omitempty,url"`
	Price        float64  `json:"price" validate:"gte=0"`
	DurationDays int      `json:"duration_days" validate:"required,min=1,max=90"`
	Rating       *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Featured     bool     `json:"featured"`
}

type DestinationUpdate struct {
	Name         *string  `json:"name" validate:"omitempty,min=2,max=120"`
	Slug         *string  `json:"slug" validate:"omitempty,slug,max=140"`
	Country      *string  `json:"country" validate:"omitempty,min=2,max=80"`
	Description  *string  `json:"description" validate:"omitempty,min=10,max=5000"`
	ImageURL     *string  `json:"image_url" validate:"omitempty,url"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	DurationDays *int     `json:"duration_days" validate:"omitempty,min=1,max=90"`
	Rating       *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Featured     *bool    `json:"featured"`
}

type GuideInput struct {
	Name            string   `json:"name" validate:"required,min=2,max=100"`
	Email           string   `json:"email" validate:"required,email,max=255"`
	Phone           *string  `json:"phone" validate:"omitempty,phone"`
	Bio             string   `json:"bio" validate:"max=2000"`
	Languages       []string `json:"languages" validate:"required,min=1,max=10,dive,min=2,max=40"`
	Specialties     []string `json:"specialties" validate:"max=10,dive,min=2,max=60"`
	ExperienceYears int      `json:"experience_years" validate:"min=0,max=60"`
	ImageURL        *string  `json:"image_url" validate:"omitempty,url"`
	Rating          *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Available       *bool    `json:"available"`
	DestinationIDs  []string `json:"destination_ids" validate:"max=50,dive,uuid"`
}

type GuideUpdate struct {
	Name            *string   `json:"name" validate:"omitempty,min=2,max=100"`
	Email           *string   `json:"email" validate:"omitempty,email,max=255"`
	Phone           *string   `json:"phone" validate:"omitempty,phone"`
	Bio             *string   `json:"bio" validate:"omitempty,max=2000"`
	Languages       []string  `json:"languages" validate:"omitempty,min=1,max=10,dive,min=2,max=40"`
	Specialties     []string  `json:"specialties" validate:"omitempty,max=10,dive,min=2,max=60"`
	ExperienceYears *int      `json:"experience_years" validate:"omitempty,min=0,max=60"`
	ImageURL        *string   `json:"image_url" validate:"omitempty,url"`
	Rating          *float64  `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Available       *bool     `json:"available"`
	DestinationIDs  *[]string `json:"destination_ids" validate:"omitempty,max=50,dive,uuid"`
}

type ReviewInput struct {
	DestinationID string  `json:"destination_id" validate:"required,uuid"`
	GuideID       *string `json:"guide_id" validate:"omitempty,uuid"`
	AuthorName    string  `json:"author_name" validate:"required,min=2,max=100"`
	Rating        int     `json:"rating" validate:"required,min=1,max=5"`
	Comment       string  `json:"comment" validate:"required,min=5,max=2000"`
}

type ReviewUpdate struct {
	Rating   *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment  *string `json:"comment" validate:"omitempty,min=5,max=2000"`
	Approved *bool   `json:"approved"`
}

type NotificationInput struct {
	Type      string  `json:"type" validate:"required,notificationtype"`
	Title     string  `json:"title" validate:"required,min=1,max=150"`
	Message   string  `json:"message" validate:"required,min=1,max=1000"`
	BookingID *string `json:"booking_id" validate:"omitempty,uuid"`
}

type ContactInput struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Subject string `json:"subject" validate:"required,min=2,max=150"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type PushTokenInput struct {
	Token      string          `json:"token" validate:"required,max=255"`
	DeviceInfo json.RawMessage `json:"device_info"`
}
