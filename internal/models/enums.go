package models

type DetectionStatus string

const (
	StatusPending  DetectionStatus = "pending"
	StatusVerified DetectionStatus = "verified"
	StatusRejected DetectionStatus = "rejected"
)

// AllStatuses is the closed set of detection statuses.
var AllStatuses = []DetectionStatus{StatusPending, StatusVerified, StatusRejected}

func (s DetectionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s is a review outcome. Only terminal statuses are
// accepted as transition targets.
func (s DetectionStatus) IsTerminal() bool {
	return s == StatusVerified || s == StatusRejected
}

type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleLGUAdmin Role = "lgu_admin"
)

func (r Role) IsValid() bool {
	return r == RoleFarmer || r == RoleLGUAdmin
}

func (r Role) IsReviewer() bool {
	return r == RoleLGUAdmin
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Table names carried on change events.
const (
	TableDetections = "detections"
	TableAdvisories = "advisories"
	TableFarms      = "farms"
	TableMessages   = "messages"
)

const (
	MaxFarmSlots = 3
	// AnalysisErrorLabel is the pest type recorded when inference fails for an image.
	AnalysisErrorLabel = "Analysis error"
)
