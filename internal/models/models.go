package models

import (
	"time"
)

// TicketStatus tracks a consultant quote request through its lifecycle.
// Transitions only move forward: pending -> paid -> completed.
type TicketStatus string

const (
	TicketPending   TicketStatus = "pending"
	TicketPaid      TicketStatus = "paid"
	TicketCompleted TicketStatus = "completed"
)

var ticketRank = map[TicketStatus]int{
	TicketPending:   0,
	TicketPaid:      1,
	TicketCompleted: 2,
}

// CanTransition reports whether moving from s to next is a legal forward step.
func (s TicketStatus) CanTransition(next TicketStatus) bool {
	from, ok := ticketRank[s]
	if !ok {
		return false
	}
	to, ok := ticketRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// OrderStatus tracks an accepted work order.
// Transitions only move forward: pending -> in-progress -> completed.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in-progress"
	OrderCompleted  OrderStatus = "completed"
)

var orderRank = map[OrderStatus]int{
	OrderPending:    0,
	OrderInProgress: 1,
	OrderCompleted:  2,
}

func (s OrderStatus) CanTransition(next OrderStatus) bool {
	from, ok := orderRank[s]
	if !ok {
		return false
	}
	to, ok := orderRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// StatusColor maps a status string to its display token. Several legacy
// screens duplicated this mapping; it lives here so they can't drift.
func StatusColor(status string) string {
	switch status {
	case "pending":
		return "amber"
	case "in-progress", "in_progress":
		return "blue"
	case "completed":
		return "green"
	default:
		return "gray"
	}
}

// Categories is the fixed set of consultant specializations a job can engage.
var Categories = []string{
	"NatHERS & BASIX",
	"Waste Management",
	"Cost Estimate",
	"Stormwater",
	"Traffic",
	"Surveyor",
	"Bushfire",
	"Flooding",
	"Acoustic",
	"Landscaping",
	"Heritage",
	"Biodiversity",
	"Lawyer",
	"Certifiers",
	"Arborist",
	"Geotechnical",
}

var categorySet = func() map[string]bool {
	m := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

func ValidCategory(c string) bool {
	return categorySet[c]
}

// FileReference points at a stored blob.
type FileReference struct {
	FileName     string     `json:"fileName"`
	OriginalName string     `json:"originalName"`
	Type         string     `json:"type,omitempty"`
	UploadedAt   time.Time  `json:"uploadedAt"`
	Size         int64      `json:"size"`
	ReturnedAt   *time.Time `json:"returnedAt,omitempty"`
}

// Assessment carries the requested scope of work and, once the consultant
// returns it, the completed document.
type Assessment struct {
	Status            TicketStatus    `json:"status"`
	DevelopmentType   string          `json:"developmentType,omitempty"`
	AdditionalInfo    string          `json:"additionalInfo,omitempty"`
	Documents         []FileReference `json:"documents,omitempty"`
	CompletedDocument *FileReference  `json:"completedDocument,omitempty"`
	ReturnedAt        *time.Time      `json:"returnedAt,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Engagement is a consultant's relationship to a job within one category,
// embedded in the job record. ConsultantID is unique within its category.
type Engagement struct {
	Name         string      `json:"name"`
	Notes        string      `json:"notes,omitempty"`
	ConsultantID string      `json:"consultantId"`
	Assessment   *Assessment `json:"assessment,omitempty"`
}

// Job is the per-address planning case. Revision is the optimistic
// concurrency token checked by the job store on save.
type Job struct {
	ID                 string                   `json:"id"`
	Address            string                   `json:"address"`
	Council            string                   `json:"council,omitempty"`
	Consultants        map[string][]Engagement  `json:"consultants,omitempty"`
	Documents          map[string]FileReference `json:"documents,omitempty"`
	SiteDetails        map[string]any           `json:"siteDetails,omitempty"`
	DevelopmentDetails map[string]any           `json:"developmentDetails,omitempty"`
	Revision           int64                    `json:"revision"`
	CreatedAt          time.Time                `json:"createdAt"`
	UpdatedAt          time.Time                `json:"updatedAt"`
}

// Engagement returns the engagement for consultantID within category, or nil.
func (j *Job) Engagement(category, consultantID string) *Engagement {
	for i := range j.Consultants[category] {
		if j.Consultants[category][i].ConsultantID == consultantID {
			return &j.Consultants[category][i]
		}
	}
	return nil
}

// ConsultantTicket is a quote request. Tickets are kept after acceptance for
// audit; a matching work order supersedes them.
type ConsultantTicket struct {
	ID                string         `json:"id"`
	JobID             string         `json:"jobId"`
	JobAddress        string         `json:"jobAddress"`
	Category          string         `json:"category"`
	ConsultantID      string         `json:"consultantId"`
	ConsultantName    string         `json:"consultantName"`
	Status            TicketStatus   `json:"status"`
	Assessment        Assessment     `json:"assessment"`
	CompletedDocument *FileReference `json:"completedDocument,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// ConsultantWorkOrder is an accepted engagement in execution. Completion
// requires both the report and the invoice to be present.
type ConsultantWorkOrder struct {
	ID                string         `json:"id"`
	JobID             string         `json:"jobId"`
	JobAddress        string         `json:"jobAddress"`
	Category          string         `json:"category"`
	ConsultantID      string         `json:"consultantId"`
	ConsultantName    string         `json:"consultantName"`
	Status            OrderStatus    `json:"status"`
	Assessment        Assessment     `json:"assessment"`
	QuoteAmount       *float64       `json:"quoteAmount,omitempty"`
	CompletedDocument *FileReference `json:"completedDocument,omitempty"`
	Invoice           *FileReference `json:"invoice,omitempty"`
	AcceptedAt        *time.Time     `json:"acceptedAt,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// Terminal reports whether the order can no longer change.
func (o *ConsultantWorkOrder) Terminal() bool {
	return o.Status == OrderCompleted
}

// DocumentVersion is one immutable upload of a document.
type DocumentVersion struct {
	Version      int       `json:"version"`
	FileName     string    `json:"fileName"`
	OriginalName string    `json:"originalName"`
	Type         string    `json:"type,omitempty"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Document is blob metadata with append-only version history.
// CurrentVersion always equals the highest version number present.
type Document struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Path           string            `json:"path,omitempty"`
	Category       string            `json:"category,omitempty"`
	Versions       []DocumentVersion `json:"versions"`
	CurrentVersion int               `json:"currentVersion"`
	IsActive       bool              `json:"isActive"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// AddVersion appends a new immutable version and bumps CurrentVersion.
// Version numbers ascend but are not required to be contiguous.
func (d *Document) AddVersion(v DocumentVersion) {
	if v.Version <= d.CurrentVersion {
		v.Version = d.CurrentVersion + 1
	}
	d.Versions = append(d.Versions, v)
	d.CurrentVersion = v.Version
}

// Version returns the version record with the given number, or nil.
func (d *Document) Version(n int) *DocumentVersion {
	for i := range d.Versions {
		if d.Versions[i].Version == n {
			return &d.Versions[i]
		}
	}
	return nil
}
