package engine

type MessageRuleFunc = func(c *MessageContext) error
type JoinRuleFunc = func(c *JoinContext) error

// Holds the rules to run for each event type, in evaluation priority order.
type RuleSet struct {
	MessageRules []MessageRuleFunc
	JoinRules    []JoinRuleFunc
}

// Executes message rules in order, stopping after the first rule that halts
// the cycle.
func (r *RuleSet) CallMessageRules(c *MessageContext) error {
	for _, f := range r.MessageRules {
		if err := f(c); err != nil {
			return err
		}
		if c.effects.Halted() {
			break
		}
	}
	return nil
}

// Executes all join rules. Join rules never halt each other: both join
// signals may be logged for the same event, and action precedence is
// resolved by effect severity, not rule order.
func (r *RuleSet) CallJoinRules(c *JoinContext) error {
	for _, f := range r.JoinRules {
		if err := f(c); err != nil {
			return err
		}
	}
	return nil
}
