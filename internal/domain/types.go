package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals are stored as plain JSON numbers, as the site always did.
	decimal.MarshalJSONWithoutQuotes = true
}

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type TicketStatus string

const (
	TicketValid TicketStatus = "valid"
	TicketUsed  TicketStatus = "used"
)

// TicketCodePrefix is printed in front of a ticket id in its QR payload.
const TicketCodePrefix = "SUNSET2025-"

// Capacity is the number of tickets on sale for the event.
const Capacity = 500

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	Role         Role      `json:"role"`
	Created      time.Time `json:"created"`
}

type Session struct {
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	LoginTime time.Time `json:"loginTime"`
}

type ProgramItem struct {
	Icon        string `json:"icon"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Time        string `json:"time"`
}

type Colors struct {
	Primary   string `json:"primary" validate:"hexcolor"`
	Secondary string `json:"secondary" validate:"hexcolor"`
	Accent    string `json:"accent" validate:"hexcolor"`
}

type EventConfig struct {
	Title       string          `json:"title" validate:"required"`
	Subtitle    string          `json:"subtitle"`
	Location    string          `json:"location"`
	Date        string          `json:"date"` // datetime-local, e.g. 2025-12-31T21:00
	Price       decimal.Decimal `json:"price"`
	Includes    string          `json:"includes"`
	Description string          `json:"description"`
	Program     []ProgramItem   `json:"program" validate:"dive"`
	Colors      Colors          `json:"colors"`
}

// SiteUpdate is the subset of the event configuration pushed to the public site.
type SiteUpdate struct {
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle"`
	Price    decimal.Decimal `json:"price"`
	Location string          `json:"location"`
	Colors   Colors          `json:"colors"`
}

type PastEvent struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	Participants string `json:"participants"`
	DJs          string `json:"djs"`
	Rating       string `json:"rating"`
}

type SocialLinks struct {
	Instagram string `json:"instagram"`
	TikTok    string `json:"tiktok"`
	Facebook  string `json:"facebook"`
}

type Ticket struct {
	ID           string       `json:"id"`
	UserName     string       `json:"userName"`
	EventName    string       `json:"eventName"`
	EventDate    string       `json:"eventDate"`
	Location     string       `json:"location"`
	PurchaseDate time.Time    `json:"purchaseDate"`
	QRData       string       `json:"qrData"`
	Status       TicketStatus `json:"status"`
	UsedDate     *time.Time   `json:"usedDate,omitempty"`
}

type Purchase struct {
	Date     time.Time       `json:"date"`
	UserID   int64           `json:"userId" validate:"gt=0"`
	UserName string          `json:"userName" validate:"required"`
	Phone    string          `json:"phone"`
	Quantity Count           `json:"quantity" validate:"gt=0"`
	Total    decimal.Decimal `json:"total"`
	Tickets  []Ticket        `json:"tickets"`
}

type SalesSummary struct {
	Rows           []Purchase      `json:"rows"`
	TotalSold      int             `json:"totalSold"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalAvailable int             `json:"totalAvailable"`
}

type ValidationOutcome string

const (
	OutcomeNotFound    ValidationOutcome = "not_found"
	OutcomeAlreadyUsed ValidationOutcome = "already_used"
	OutcomeValidated   ValidationOutcome = "validated"
)

type ValidationResult struct {
	Outcome   ValidationOutcome `json:"outcome"`
	Code      string            `json:"code"`
	TicketID  string            `json:"ticketId"`
	UserName  string            `json:"userName,omitempty"`
	EventName string            `json:"eventName,omitempty"`
	EventDate string            `json:"eventDate,omitempty"`
	Location  string            `json:"location,omitempty"`
	UsedDate  *time.Time        `json:"usedDate,omitempty"`
}

// Count is a quantity that older records stored either as a number or as a
// numeric string.
type Count int

func (c *Count) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*c = 0
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		s = strings.TrimSpace(raw)
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid count %q: %w", s, err)
	}

	*c = Count(n)
	return nil
}
