package booking

import "time"

type Garage struct {
	ID                string
	Name              string
	IsActive          bool
	AcceptingBookings bool
}

type Vehicle struct {
	ID     string
	UserID string
	Plate  string
	Model  string
}

type ServiceItem struct {
	ID         string
	GarageID   string
	Name       string
	PriceCents int
	IsActive   bool
}

type RecordStatus string

const (
	RecordPending    RecordStatus = "PENDING"
	RecordInProgress RecordStatus = "IN_PROGRESS"
	RecordCompleted  RecordStatus = "COMPLETED"
	RecordCancelled  RecordStatus = "CANCELLED"
)

var validNext = map[RecordStatus]map[RecordStatus]bool{
	RecordPending:    {RecordInProgress: true, RecordCancelled: true},
	RecordInProgress: {RecordCompleted: true, RecordCancelled: true},
	RecordCompleted:  {},
	RecordCancelled:  {},
}

func CanTransition(from, to RecordStatus) bool {
	return validNext[from][to]
}

// RecordItem: snapshot nama+harga saat booking. Sengaja tanpa referensi ke
// service_items supaya edit katalog belakangan tidak mengubah booking lama.
type RecordItem struct {
	Name       string
	PriceCents int
}

type ServiceRecord struct {
	ID         string
	UserID     string
	VehicleID  string
	GarageID   string
	Status     RecordStatus
	StartTime  time.Time
	EndTime    *time.Time
	TotalCents int
	Items      []RecordItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
