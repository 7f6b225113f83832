package model

import (
	"net/url"
	"path"
	"sort"
	"strings"
)

type AccountTier string

const (
	TierStar        AccountTier = "1"
	TierPremium     AccountTier = "2"
	TierPremiumPlus AccountTier = "3"
)

func ParseTier(raw string) (AccountTier, bool) {
	switch AccountTier(strings.TrimSpace(raw)) {
	case TierStar:
		return TierStar, true
	case TierPremium:
		return TierPremium, true
	case TierPremiumPlus:
		return TierPremiumPlus, true
	default:
		return "", false
	}
}

func (t AccountTier) Label() string {
	switch t {
	case TierStar:
		return "Star"
	case TierPremium:
		return "Premium"
	case TierPremiumPlus:
		return "Premium Plus"
	default:
		return "Unknown"
	}
}

type Category string

const (
	CategoryHotel      Category = "1"
	CategoryCoffee     Category = "2"
	CategoryRestaurant Category = "3"
)

func (c Category) Label() string {
	switch c {
	case CategoryHotel:
		return "Hotel"
	case CategoryCoffee:
		return "Coffee"
	case CategoryRestaurant:
		return "Restaurant"
	default:
		return "Unknown"
	}
}

// RouteSegment is the category name the backend acceptance route expects.
func (c Category) RouteSegment() (string, bool) {
	switch c {
	case CategoryHotel:
		return "Hottel", true
	case CategoryCoffee:
		return "Coffee", true
	case CategoryRestaurant:
		return "Restaurant", true
	default:
		return "", false
	}
}

type EstateStatus string

const (
	EstatePending  EstateStatus = "1"
	EstateAccepted EstateStatus = "2"
	EstateRejected EstateStatus = "3"
)

func (s EstateStatus) Terminal() bool {
	return s == EstateAccepted || s == EstateRejected
}

type PostStatus string

const (
	PostUnderProcess PostStatus = "0"
	PostAccepted     PostStatus = "1"
	PostRejected     PostStatus = "2"
)

func (s PostStatus) Terminal() bool {
	return s == PostAccepted || s == PostRejected
}

func (s PostStatus) Label() string {
	switch s {
	case PostUnderProcess, "":
		return "Under Process"
	case PostAccepted:
		return "Accepted"
	case PostRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

type User struct {
	ID              string `json:"id"`
	FirstName       string `json:"FirstName"`
	LastName        string `json:"LastName"`
	Email           string `json:"Email"`
	PhoneNumber     string `json:"PhoneNumber"`
	Gender          string `json:"Gender"`
	AccountType     Code   `json:"accountType"`
	Country         string `json:"Country,omitempty"`
	State           string `json:"State,omitempty"`
	DateOfBirth     string `json:"DateOfBirth,omitempty"`
	ProfileImageURL string `json:"ProfileImageUrl,omitempty"`
}

type Provider struct {
	ID          string `json:"id"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Industry    string `json:"industry"`
	Type        Code   `json:"type"`
	AccountType Code   `json:"accountType"`
}

type Estate struct {
	ID              string `json:"id"`
	CompanyName     string `json:"companyName"`
	ProviderName    string `json:"providerName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	AgentCode       string `json:"agentCode,omitempty"`
	City            string `json:"city"`
	Country         string `json:"country"`
	State           string `json:"state"`
	Type            Code   `json:"type"`
	AccountType     Code   `json:"accountType"`
	Music           string `json:"music,omitempty"`
	HasKidsArea     string `json:"hasKidsArea,omitempty"`
	HasMassage      string `json:"hasMassage,omitempty"`
	HasSwimmingPool string `json:"hasSwimmingPool,omitempty"`
	HasValet        string `json:"hasValet,omitempty"`
	Sessions        string `json:"sessions,omitempty"`
	FacilityPDFURL  string `json:"facilityPdfUrl,omitempty"`
	TaxPDFURL       string `json:"taxPdfUrl,omitempty"`
	IsAccepted      Code   `json:"IsAccepted,omitempty"`
}

// Status treats a missing acceptance flag as pending.
func (e Estate) Status() EstateStatus {
	if e.IsAccepted == "" {
		return EstatePending
	}
	return EstateStatus(e.IsAccepted)
}

func (e Estate) Category() Category { return Category(e.Type) }

type Post struct {
	ID              string `json:"id"`
	Username        string `json:"Username,omitempty"`
	ProfileImageURL string `json:"ProfileImageUrl,omitempty"`
	Description     string `json:"Description"`
	Status          Code   `json:"Status"`
	ImageURLs       URLSet `json:"ImageUrls"`
	VideoURLs       URLSet `json:"VideoUrls"`
}

func (p Post) PostStatus() PostStatus {
	if p.Status == "" {
		return PostUnderProcess
	}
	return PostStatus(p.Status)
}

type MediaKind string

const (
	MediaImage   MediaKind = "image"
	MediaVideo   MediaKind = "video"
	MediaUnknown MediaKind = "unknown"
)

// MediaKindOf classifies a media URL by the extension of its path.
func MediaKindOf(raw string) MediaKind {
	if raw == "" {
		return MediaUnknown
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return MediaUnknown
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(parsed.Path)), ".")
	switch ext {
	case "jpg", "jpeg", "png", "gif", "bmp", "webp":
		return MediaImage
	case "mp4", "webm", "ogg", "mov", "avi", "mkv":
		return MediaVideo
	default:
		return MediaUnknown
	}
}

type Comment struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

type FeedbackUser struct {
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	ProfileImageURL string `json:"ProfileImageUrl,omitempty"`
}

type FeedbackEstate struct {
	NameEn string `json:"NameEn,omitempty"`
}

type Feedback struct {
	FeedbackID string          `json:"feedbackId"`
	UserName   string          `json:"userName,omitempty"`
	Feedback   string          `json:"feedback"`
	Rating     Rating          `json:"rating"`
	Timestamp  Code            `json:"timestamp"`
	User       *FeedbackUser   `json:"user,omitempty"`
	Estate     *FeedbackEstate `json:"estate,omitempty"`
	Comments   []Comment       `json:"comments,omitempty"`
}

type ProviderFeedback struct {
	FeedbackID         string `json:"feedbackId"`
	EstateID           string `json:"EstateID,omitempty"`
	EstateName         string `json:"EstateName,omitempty"`
	EstateProfileImage string `json:"estateProfileImage,omitempty"`
	CustomerID         string `json:"CustomerID,omitempty"`
	CustomerName       string `json:"CustomerName,omitempty"`
	Comment            string `json:"comment"`
	Rating             Rating `json:"rating"`
	Timestamp          Code   `json:"timestamp"`
}

type BookingUser struct {
	FirstName   string `json:"FirstName,omitempty"`
	LastName    string `json:"LastName,omitempty"`
	Email       string `json:"Email,omitempty"`
	PhoneNumber string `json:"PhoneNumber,omitempty"`
	Gender      string `json:"Gender,omitempty"`
	Country     string `json:"Country,omitempty"`
	State       string `json:"State,omitempty"`
	DateOfBirth string `json:"DateOfBirth,omitempty"`
}

type Booking struct {
	ID            string       `json:"id"`
	PlaceName     string       `json:"placeName,omitempty"`
	City          string       `json:"city,omitempty"`
	Country       string       `json:"country,omitempty"`
	DateOfBooking string       `json:"dateOfBooking,omitempty"`
	StartDate     string       `json:"startDate,omitempty"`
	EndDate       string       `json:"endDate,omitempty"`
	NetTotal      any          `json:"netTotal,omitempty"`
	Status        Code         `json:"status,omitempty"`
	User          *BookingUser `json:"user,omitempty"`
}

// DashboardUser is an entry of the combined users/providers registry.
type DashboardUser struct {
	TypeUser           Code   `json:"TypeUser"`
	TypeAccount        Code   `json:"TypeAccount"`
	DateOfRegistration string `json:"DateOfRegistration"`
}

const (
	TypeUserCustomer Code = "1"
	TypeUserProvider Code = "2"
)

func sortedValues(keyed map[string]string) []string {
	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, keyed[k])
	}
	return out
}
