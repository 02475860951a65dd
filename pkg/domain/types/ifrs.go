package types

import "github.com/m-mizutani/goerr/v2"

// EffectType distinguishes current from anticipated financial effects
type EffectType string

const (
	EffectTypeCurrent     EffectType = "Current"
	EffectTypeAnticipated EffectType = "Anticipated"
)

func (e EffectType) IsValid() bool {
	switch e {
	case EffectTypeCurrent, EffectTypeAnticipated:
		return true
	default:
		return false
	}
}

func (e EffectType) String() string {
	return string(e)
}

// ParseEffectType parses a string into an EffectType
func ParseEffectType(s string) (EffectType, error) {
	e := EffectType(s)
	if !e.IsValid() {
		return "", goerr.New("invalid effect type", goerr.V("effect_type", s))
	}
	return e, nil
}

// FinancialStatement is the primary statement a risk is linked to
type FinancialStatement string

const (
	FinancialStatementBalanceSheet FinancialStatement = "Balance Sheet"
	FinancialStatementProfitLoss   FinancialStatement = "Profit & Loss"
	FinancialStatementCashFlow     FinancialStatement = "Cash Flow"
)

// AllFinancialStatements returns all valid financial statements
func AllFinancialStatements() []FinancialStatement {
	return []FinancialStatement{
		FinancialStatementBalanceSheet,
		FinancialStatementProfitLoss,
		FinancialStatementCashFlow,
	}
}

func (f FinancialStatement) IsValid() bool {
	switch f {
	case FinancialStatementBalanceSheet,
		FinancialStatementProfitLoss,
		FinancialStatementCashFlow:
		return true
	default:
		return false
	}
}

func (f FinancialStatement) String() string {
	return string(f)
}

// ParseFinancialStatement parses a string into a FinancialStatement
func ParseFinancialStatement(s string) (FinancialStatement, error) {
	f := FinancialStatement(s)
	if !f.IsValid() {
		return "", goerr.New("invalid financial statement", goerr.V("statement", s))
	}
	return f, nil
}
