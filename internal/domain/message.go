package domain

import "time"

type MessageStatus string

const (
	StatusQueued    MessageStatus = "queued"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

// statusRank orders the forward path queued -> sent -> delivered -> read.
// failed is handled separately because it is reachable only from queued or sent.
var statusRank = map[MessageStatus]int{
	StatusQueued:    0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

func ParseMessageStatus(s string) (MessageStatus, bool) {
	status := MessageStatus(s)
	if status == StatusFailed {
		return status, true
	}
	_, ok := statusRank[status]
	return status, ok
}

func (s MessageStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusRead || s == StatusFailed
}

// CanTransition reports whether moving from s to next is a forward step in the
// status graph. Repeats and regressions return false.
func (s MessageStatus) CanTransition(next MessageStatus) bool {
	if s == StatusFailed || s == StatusRead {
		return false
	}

	if next == StatusFailed {
		return s == StatusQueued || s == StatusSent
	}

	cur, ok := statusRank[s]
	if !ok {
		return false
	}
	nxt, ok := statusRank[next]
	if !ok {
		return false
	}

	return nxt > cur
}

type MessageRecord struct {
	ID                 int64         `db:"id" json:"id"`
	LeadID             *int64        `db:"lead_id" json:"leadId,omitempty"`
	Phone              string        `db:"phone" json:"phone"`
	TemplateName       string        `db:"template_name" json:"templateName"`
	Status             MessageStatus `db:"status" json:"status"`
	TransportMessageID *string       `db:"transport_message_id" json:"transportMessageId,omitempty"`
	Via                string        `db:"via" json:"via,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"createdAt"`
	SentAt             *time.Time    `db:"sent_at" json:"sentAt,omitempty"`
	DeliveredAt        *time.Time    `db:"delivered_at" json:"deliveredAt,omitempty"`
	ReadAt             *time.Time    `db:"read_at" json:"readAt,omitempty"`
	FailedAt           *time.Time    `db:"failed_at" json:"failedAt,omitempty"`
	FailureReason      *string       `db:"failure_reason" json:"failureReason,omitempty"`
}

// Advance applies next to the record if it is a forward transition and stamps
// the matching timestamp only when it is still unset. It returns false when the
// event is a duplicate or out of order and must be dropped.
func (m *MessageRecord) Advance(next MessageStatus, at time.Time, reason string) bool {
	if !m.Status.CanTransition(next) {
		return false
	}

	switch next {
	case StatusSent:
		setOnce(&m.SentAt, at)
	case StatusDelivered:
		setOnce(&m.SentAt, at)
		setOnce(&m.DeliveredAt, at)
	case StatusRead:
		// read implies delivered
		setOnce(&m.SentAt, at)
		setOnce(&m.DeliveredAt, at)
		setOnce(&m.ReadAt, at)
	case StatusFailed:
		setOnce(&m.FailedAt, at)
		if m.FailureReason == nil && reason != "" {
			r := reason
			m.FailureReason = &r
		}
	}

	m.Status = next
	return true
}

func setOnce(field **time.Time, at time.Time) {
	if *field != nil {
		return
	}
	t := at
	*field = &t
}

type StatusCache struct {
	RecordID  int64         `json:"recordId"`
	Status    MessageStatus `json:"status"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type MessageStats struct {
	Queued    int64 `db:"queued" json:"queued"`
	Sent      int64 `db:"sent" json:"sent"`
	Delivered int64 `db:"delivered" json:"delivered"`
	Read      int64 `db:"read_count" json:"read"`
	Failed    int64 `db:"failed" json:"failed"`
}

func (s MessageStats) Total() int64 {
	return s.Queued + s.Sent + s.Delivered + s.Read + s.Failed
}
