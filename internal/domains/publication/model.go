package publication

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Publication là một newsletter: có owner, slug duy nhất trong hệ thống
type Publication struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description *string   `db:"description" json:"description,omitempty"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`

	// Paid tier: giá hàng tháng, NULL nghĩa là publication chỉ có free tier
	MonthlyPrice *decimal.Decimal `db:"monthly_price" json:"monthly_price,omitempty"`
	Currency     string           `db:"currency" json:"currency"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasPaidTier reports whether readers can buy a paid subscription
func (p *Publication) HasPaidTier() bool {
	return p.MonthlyPrice != nil && p.MonthlyPrice.IsPositive()
}
