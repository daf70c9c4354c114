package shared

// MovementType classifies a register entry by payment channel
type MovementType string

const (
	MovementTypeIncomeCash      MovementType = "INCOME_CASH"
	MovementTypeIncomeDebit     MovementType = "INCOME_DEBIT"
	MovementTypeIncomeCredit    MovementType = "INCOME_CREDIT"
	MovementTypeIncomePixKey    MovementType = "INCOME_PIX_KEY"
	MovementTypeIncomeQRCode    MovementType = "INCOME_QR_CODE"
	MovementTypeIncomeIfood     MovementType = "INCOME_IFOOD"
	MovementTypeIncomeAgreement MovementType = "INCOME_AGREEMENT"
	MovementTypeExpense         MovementType = "EXPENSE"
)

// MovementTypes lists every accepted movement type in display order
var MovementTypes = []MovementType{
	MovementTypeIncomeCash,
	MovementTypeIncomeDebit,
	MovementTypeIncomeCredit,
	MovementTypeIncomePixKey,
	MovementTypeIncomeQRCode,
	MovementTypeIncomeIfood,
	MovementTypeIncomeAgreement,
	MovementTypeExpense,
}

func (t MovementType) IsValid() bool {
	for _, candidate := range MovementTypes {
		if t == candidate {
			return true
		}
	}
	return false
}

// IsAgreement reports whether the movement is billed to a partner company
func (t MovementType) IsAgreement() bool {
	return t == MovementTypeIncomeAgreement
}

// IsCounter reports whether the movement is a walk-up sale paid into the drawer.
// Delivery (iFood) income is settled by the platform and is not a counter sale.
func (t MovementType) IsCounter() bool {
	switch t {
	case MovementTypeIncomeCash, MovementTypeIncomeDebit, MovementTypeIncomeCredit,
		MovementTypeIncomePixKey, MovementTypeIncomeQRCode:
		return true
	}
	return false
}

// ItemCategory distinguishes priced meals from free-form extras on agreement lines
type ItemCategory string

const (
	ItemCategoryMeal  ItemCategory = "MEAL"
	ItemCategoryExtra ItemCategory = "EXTRA"
)

func (c ItemCategory) IsValid() bool {
	return c == ItemCategoryMeal || c == ItemCategoryExtra
}

// BillingType defines how a partner company is invoiced
type BillingType string

const (
	BillingTypeGroup      BillingType = "GROUP"
	BillingTypeIndividual BillingType = "INDIVIDUAL"
)

func (b BillingType) IsValid() bool {
	return b == BillingTypeGroup || b == BillingTypeIndividual
}

// RegisterStatus defines the daily register states
type RegisterStatus string

const (
	RegisterStatusOpen   RegisterStatus = "OPEN"
	RegisterStatusClosed RegisterStatus = "CLOSED"
)

// AuditAction names a mutating action recorded in the audit trail
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
	AuditActionOpen   AuditAction = "OPEN"
	AuditActionClose  AuditAction = "CLOSE"
)

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete, AuditActionOpen, AuditActionClose:
		return true
	}
	return false
}

// Audited entity names
const (
	EntityCompany     = "Company"
	EntityDailyReport = "DailyReport"
	EntityMovement    = "Movement"
	EntityClosing     = "Closing"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
