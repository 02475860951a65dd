package types

import "github.com/m-mizutani/goerr/v2"

// ValueChainStage is where in the business process a risk manifests
type ValueChainStage string

const (
	ValueChainUpstream   ValueChainStage = "Upstream"
	ValueChainDirectOps  ValueChainStage = "Direct Operations"
	ValueChainDownstream ValueChainStage = "Downstream"
)

// AllValueChainStages returns the stages in process order
func AllValueChainStages() []ValueChainStage {
	return []ValueChainStage{
		ValueChainUpstream,
		ValueChainDirectOps,
		ValueChainDownstream,
	}
}

func (v ValueChainStage) IsValid() bool {
	switch v {
	case ValueChainUpstream, ValueChainDirectOps, ValueChainDownstream:
		return true
	default:
		return false
	}
}

func (v ValueChainStage) String() string {
	return string(v)
}

// ParseValueChainStage parses a string into a ValueChainStage
func ParseValueChainStage(s string) (ValueChainStage, error) {
	stage := ValueChainStage(s)
	if !stage.IsValid() {
		return "", goerr.New("invalid value chain stage", goerr.V("stage", s))
	}
	return stage, nil
}
