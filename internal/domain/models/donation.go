// internal/domain/models/donation.go
package models

import "time"

// Donation is a single contribution.
//
// Phone is not a foreign key: it is matched against Member.Phone by value at
// query time, and may belong to nobody. Name is the donor name as recorded on
// the receipt and can differ from the member's current name.
type Donation struct {
	ID            int64     `bson:"_id" json:"id"`
	ReceiptNumber string    `bson:"receipt_number" json:"receipt_number"`
	Phone         string    `bson:"phone" json:"phone"`
	Name          string    `bson:"name" json:"name"`
	Amount        int64     `bson:"amount" json:"amount"` // smallest currency unit
	PaymentMode   string    `bson:"payment_mode,omitempty" json:"payment_mode,omitempty"`
	Date          time.Time `bson:"date" json:"date"` // UTC midnight of the calendar date
	Campaign      string    `bson:"campaign,omitempty" json:"campaign,omitempty"`
	InternalNote  string    `bson:"internal_note,omitempty" json:"internal_note,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	CreatedBy *int64    `bson:"created_by,omitempty" json:"created_by"`
	UpdatedBy *int64    `bson:"updated_by,omitempty" json:"updated_by"`
}

// DonationTotals is the result of a summary aggregation.
type DonationTotals struct {
	TotalAmount int64 `bson:"total_amount" json:"totalAmount"`
	Count       int64 `bson:"count" json:"count"`
}

// DailyAmount is one point of the donation line chart.
type DailyAmount struct {
	Date   string `json:"date"` // yyyy-mm-dd
	Amount int64  `json:"amount"`
}

// TopDonor is one leaderboard row. MemberID is nil when no member has the
// donor's phone number (an unregistered donor).
type TopDonor struct {
	Phone         string `bson:"_id" json:"phone"`
	Name          string `bson:"name" json:"name"`
	TotalAmount   int64  `bson:"total_amount" json:"totalAmount"`
	DonationCount int64  `bson:"donation_count" json:"donationCount"`
	MemberID      *int64 `bson:"member_id,omitempty" json:"memberId"`
}
