package model

type NoticeCategory string

const (
	NoticeAcademic   NoticeCategory = "Academic"
	NoticeCampusLife NoticeCategory = "Campus Life"
	NoticeEvents     NoticeCategory = "Events"
	NoticeHoliday    NoticeCategory = "Holiday"
	NoticeSports     NoticeCategory = "Sports"
	NoticePlacement  NoticeCategory = "Placement"
	NoticeCanteen    NoticeCategory = "Canteen"
)

// Audience limits who sees a notice; All overrides the lists
type Audience struct {
	All     bool     `json:"all"`
	Degrees []string `json:"degrees,omitempty"`
	Years   []string `json:"years,omitempty"`
	Streams []string `json:"streams,omitempty"`
}

type Notice struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Category  NoticeCategory `json:"category"`
	PostedBy  string         `json:"posted_by"`
	PostedOn  int64          `json:"posted_on"` // Unix milliseconds
	VisibleTo Audience       `json:"visible_to"`
}

type EventType string

const (
	EventCompetition EventType = "Competition"
	EventWorkshop    EventType = "Workshop"
	EventSocial      EventType = "Social"
	EventAcademic    EventType = "Academic"
)

type Event struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Type     EventType `json:"type"`
	Date     int64     `json:"date"` // Unix milliseconds
	Location string    `json:"location"`
	Image    string    `json:"image"`
	AIHint   string    `json:"aiHint"`
}
